package flow

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ValidationError represents a validation error with file context.
type ValidationError struct {
	File    string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.File, e.Message)
}

// ValidationResult contains the flows that parsed cleanly plus every error
// encountered, so a validate command can report all problems at once.
type ValidationResult struct {
	Flows  []*Flow
	Errors []error
}

// IsValid returns true if there are no validation errors.
func (r *ValidationResult) IsValid() bool {
	return len(r.Errors) == 0
}

// Validator discovers, parses, and tag-filters flow files.
type Validator struct {
	includeTags []string
	excludeTags []string
}

// NewValidator creates a Validator with the given tag filters.
func NewValidator(includeTags, excludeTags []string) *Validator {
	return &Validator{
		includeTags: includeTags,
		excludeTags: excludeTags,
	}
}

// Validate parses every flow file reachable from the given paths (files or
// directories) and applies the tag filters.
func (v *Validator) Validate(paths ...string) *ValidationResult {
	result := &ValidationResult{}

	files, errs := collectFlowFiles(paths)
	result.Errors = append(result.Errors, errs...)

	for _, file := range files {
		f, err := ParseFile(file)
		if err != nil {
			result.Errors = append(result.Errors, &ValidationError{
				File:    file,
				Message: err.Error(),
			})
			continue
		}
		if v.matches(f) {
			result.Flows = append(result.Flows, f)
		}
	}

	return result
}

func (v *Validator) matches(f *Flow) bool {
	for _, tag := range v.excludeTags {
		if f.HasTag(tag) {
			return false
		}
	}
	if len(v.includeTags) == 0 {
		return true
	}
	for _, tag := range v.includeTags {
		if f.HasTag(tag) {
			return true
		}
	}
	return false
}

// collectFlowFiles expands files and directories into a sorted list of
// *.yaml / *.yml paths. Directories are walked recursively.
func collectFlowFiles(paths []string) ([]string, []error) {
	var files []string
	var errs []error

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			errs = append(errs, &ValidationError{
				File:    path,
				Message: fmt.Sprintf("cannot access: %v", err),
			})
			continue
		}

		if !info.IsDir() {
			files = append(files, path)
			continue
		}

		walkErr := filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			ext := strings.ToLower(filepath.Ext(p))
			if ext == ".yaml" || ext == ".yml" {
				files = append(files, p)
			}
			return nil
		})
		if walkErr != nil {
			errs = append(errs, &ValidationError{
				File:    path,
				Message: fmt.Sprintf("failed to scan directory: %v", walkErr),
			})
		}
	}

	sort.Strings(files)
	return files, errs
}
