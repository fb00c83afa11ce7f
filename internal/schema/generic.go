package schema

import "fmt"

// ParseStruct is a generic helper for Validator implementations over a
// single JSON object: normalize, unmarshal strictly, then run a
// caller-supplied field-level check. Used by the sub-schemas the Canvas
// Analyzer, Intent Engine, and Suggestion Engine bind generate_object to.
func ParseStruct[T any](raw string, validate func(*T) []Issue) (interface{}, []Issue) {
	var v T
	if err := unmarshalStrict(Normalize(raw), &v); err != nil {
		return nil, []Issue{{Path: "$", Code: IssueInvalidType, Message: err.Error()}}
	}
	if issues := validate(&v); len(issues) > 0 {
		return nil, issues
	}
	return &v, nil
}

// ParseSlice is ParseStruct's array counterpart: normalize, unmarshal as a
// JSON array, then validate each element, prefixing issue paths with the
// element's index.
func ParseSlice[T any](raw string, validate func(*T) []Issue) (interface{}, []Issue) {
	var list []T
	if err := unmarshalStrict(Normalize(raw), &list); err != nil {
		return nil, []Issue{{Path: "$", Code: IssueInvalidType, Message: err.Error()}}
	}
	var issues []Issue
	for i := range list {
		for _, iss := range validate(&list[i]) {
			iss.Path = fmt.Sprintf("[%d].%s", i, iss.Path)
			issues = append(issues, iss)
		}
	}
	if len(issues) > 0 {
		return nil, issues
	}
	return list, nil
}
