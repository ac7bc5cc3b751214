// Package evals scores how well an assistant picks toolkit tools and fills
// their arguments from natural-language teacher requests.
package evals

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"sort"
	"strings"
)

//go:embed data/*.json
var suiteFS embed.FS

const (
	toolSelectionFile = "tool_selection.json"
	confusionFile     = "confusion_pairs.json"
	argumentsFile     = "argument_correctness.json"
)

// ToolSelectionTest represents a single tool selection evaluation case
type ToolSelectionTest struct {
	ID           string         `json:"id"`
	Category     string         `json:"category"`
	Input        string         `json:"input"`
	ExpectedTool string         `json:"expected_tool"`
	ExpectedArgs map[string]any `json:"expected_args"`
	NotTools     []string       `json:"not_tools"`
}

// ToolSelectionSuite contains all tool selection tests
type ToolSelectionSuite struct {
	Name        string              `json:"name"`
	Version     string              `json:"version"`
	Description string              `json:"description"`
	Tests       []ToolSelectionTest `json:"tests"`
}

// ConfusionPairTest represents a single disambiguation test
type ConfusionPairTest struct {
	Input    string `json:"input"`
	Expected string `json:"expected"`
	Reason   string `json:"reason"`
}

// ConfusionPair represents a pair of tools that are commonly confused
type ConfusionPair struct {
	ID             string              `json:"id"`
	Tools          []string            `json:"tools"`
	Disambiguation string              `json:"disambiguation"`
	Tests          []ConfusionPairTest `json:"tests"`
}

// ConfusionPairSuite contains all confusion pair tests
type ConfusionPairSuite struct {
	Name        string          `json:"name"`
	Version     string          `json:"version"`
	Description string          `json:"description"`
	Pairs       []ConfusionPair `json:"pairs"`
}

// ArgumentTest represents a single argument correctness test
type ArgumentTest struct {
	ID            string         `json:"id"`
	Tool          string         `json:"tool"`
	Input         string         `json:"input"`
	RequiredArgs  []string       `json:"required_args"`
	ExpectedArgs  map[string]any `json:"expected_args"`
	ForbiddenArgs []string       `json:"forbidden_args"`
	ArgNotes      string         `json:"arg_notes,omitempty"`
}

// ValidationRules documents argument conventions for graders
type ValidationRules struct {
	IDFormat       string `json:"id_format"`
	CategoryFormat string `json:"category_format"`
	AccessValues   string `json:"access_values"`
	PageNumbers    string `json:"page_numbers"`
}

// ArgumentSuite contains all argument correctness tests
type ArgumentSuite struct {
	Name            string          `json:"name"`
	Version         string          `json:"version"`
	Description     string          `json:"description"`
	Tests           []ArgumentTest  `json:"tests"`
	ValidationRules ValidationRules `json:"validation_rules"`
}

// Suites bundles the three evaluation suites.
type Suites struct {
	ToolSelection  *ToolSelectionSuite
	ConfusionPairs *ConfusionPairSuite
	Arguments      *ArgumentSuite
}

// ToolSelectionResult represents the result of a single tool selection evaluation
type ToolSelectionResult struct {
	TestID       string
	Input        string
	ExpectedTool string
	ActualTool   string
	Passed       bool
	Errors       []string
}

// ConfusionPairResult represents the result of a confusion pair evaluation
type ConfusionPairResult struct {
	PairID       string
	TestInput    string
	ExpectedTool string
	ActualTool   string
	Reason       string
	Passed       bool
}

// ArgumentResult represents the result of an argument correctness evaluation
type ArgumentResult struct {
	TestID       string
	Tool         string
	Input        string
	Passed       bool
	Error        string
	MissingArgs  []string
	WrongArgs    map[string]string // arg -> "expected X, got Y"
	ForbiddenHit []string
}

// EvalMetrics contains aggregate metrics for an evaluation run
type EvalMetrics struct {
	TotalTests    int
	PassedTests   int
	FailedTests   int
	Accuracy      float64
	ByCategory    map[string]*CategoryMetrics
	ByTool        map[string]*ToolMetrics
	FailedDetails []string
}

// CategoryMetrics contains metrics per category
type CategoryMetrics struct {
	Total  int
	Passed int
	Failed int
}

// ToolMetrics contains metrics per tool
type ToolMetrics struct {
	ExpectedCount  int
	SelectedCount  int
	CorrectCount   int
	FalsePositives int
	FalseNegatives int
}

func newMetrics() *EvalMetrics {
	return &EvalMetrics{
		ByCategory: make(map[string]*CategoryMetrics),
		ByTool:     make(map[string]*ToolMetrics),
	}
}

func (m *EvalMetrics) category(name string) *CategoryMetrics {
	if m.ByCategory[name] == nil {
		m.ByCategory[name] = &CategoryMetrics{}
	}
	return m.ByCategory[name]
}

func (m *EvalMetrics) tool(name string) *ToolMetrics {
	if m.ByTool[name] == nil {
		m.ByTool[name] = &ToolMetrics{}
	}
	return m.ByTool[name]
}

func (m *EvalMetrics) finish() {
	if m.TotalTests > 0 {
		m.Accuracy = float64(m.PassedTests) / float64(m.TotalTests)
	}
}

func decode[T any](data []byte, name string) (*T, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", name, err)
	}
	return &v, nil
}

func loadFile[T any](path string) (*T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	return decode[T](data, filepath.Base(path))
}

// LoadToolSelectionSuite loads tool selection tests from a JSON file
func LoadToolSelectionSuite(path string) (*ToolSelectionSuite, error) {
	return loadFile[ToolSelectionSuite](path)
}

// LoadConfusionPairSuite loads confusion pair tests from a JSON file
func LoadConfusionPairSuite(path string) (*ConfusionPairSuite, error) {
	return loadFile[ConfusionPairSuite](path)
}

// LoadArgumentSuite loads argument correctness tests from a JSON file
func LoadArgumentSuite(path string) (*ArgumentSuite, error) {
	return loadFile[ArgumentSuite](path)
}

// LoadAllEvals loads all evaluation suites from a directory
func LoadAllEvals(dir string) (*Suites, error) {
	return loadSuites(os.DirFS(dir))
}

// LoadEmbedded loads the suites bundled with the binary.
func LoadEmbedded() (*Suites, error) {
	sub, err := fs.Sub(suiteFS, "data")
	if err != nil {
		return nil, err
	}
	return loadSuites(sub)
}

func loadSuites(fsys fs.FS) (*Suites, error) {
	read := func(name string) ([]byte, error) {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}
		return data, nil
	}

	var s Suites
	data, err := read(toolSelectionFile)
	if err != nil {
		return nil, err
	}
	if s.ToolSelection, err = decode[ToolSelectionSuite](data, toolSelectionFile); err != nil {
		return nil, err
	}
	if data, err = read(confusionFile); err != nil {
		return nil, err
	}
	if s.ConfusionPairs, err = decode[ConfusionPairSuite](data, confusionFile); err != nil {
		return nil, err
	}
	if data, err = read(argumentsFile); err != nil {
		return nil, err
	}
	if s.Arguments, err = decode[ArgumentSuite](data, argumentsFile); err != nil {
		return nil, err
	}
	return &s, nil
}

// ToolSelector is an interface that an LLM or mock can implement for testing
type ToolSelector interface {
	// SelectTool returns the tool name and arguments for a given natural language input
	SelectTool(input string) (toolName string, args map[string]any, err error)
}

// Response is one recorded selection.
type Response struct {
	Tool string         `json:"tool"`
	Args map[string]any `json:"args"`
}

// ResponseSelector replays selections recorded from an assistant run,
// keyed by input text.
type ResponseSelector map[string]Response

// SelectTool implements ToolSelector. Unknown inputs select nothing.
func (r ResponseSelector) SelectTool(input string) (string, map[string]any, error) {
	resp, ok := r[input]
	if !ok {
		return "", nil, fmt.Errorf("no recorded response for %q", input)
	}
	return resp.Tool, resp.Args, nil
}

// LoadResponses reads a ResponseSelector from a JSON object file.
func LoadResponses(path string) (ResponseSelector, error) {
	sel, err := loadFile[ResponseSelector](path)
	if err != nil {
		return nil, err
	}
	return *sel, nil
}

// ToolSurface maps each registered tool to its argument names.
type ToolSurface map[string][]string

// Validate checks the suites against the registered tools: every named tool
// must exist, every expected argument must be declared, and test ids must
// be unique. It returns one message per problem.
func (s *Suites) Validate(surface ToolSurface) []string {
	var issues []string
	checkTool := func(where, name string) bool {
		if _, ok := surface[name]; !ok {
			issues = append(issues, fmt.Sprintf("%s: unknown tool %q", where, name))
			return false
		}
		return true
	}
	checkArgs := func(where, tool string, names []string) {
		for _, arg := range names {
			if !slices.Contains(surface[tool], arg) {
				issues = append(issues, fmt.Sprintf("%s: %s has no argument %q", where, tool, arg))
			}
		}
	}

	ids := make(map[string]bool)
	checkID := func(id string) {
		if ids[id] {
			issues = append(issues, fmt.Sprintf("duplicate test id %q", id))
		}
		ids[id] = true
	}

	if s.ToolSelection != nil {
		for _, t := range s.ToolSelection.Tests {
			checkID(t.ID)
			if checkTool(t.ID, t.ExpectedTool) {
				checkArgs(t.ID, t.ExpectedTool, sortedKeys(t.ExpectedArgs))
			}
			for _, nt := range t.NotTools {
				checkTool(t.ID, nt)
			}
		}
	}
	if s.ConfusionPairs != nil {
		for _, p := range s.ConfusionPairs.Pairs {
			checkID(p.ID)
			for _, name := range p.Tools {
				checkTool(p.ID, name)
			}
			for _, t := range p.Tests {
				if !slices.Contains(p.Tools, t.Expected) {
					issues = append(issues, fmt.Sprintf("%s: expected %q is not one of the pair", p.ID, t.Expected))
				}
			}
		}
	}
	if s.Arguments != nil {
		for _, t := range s.Arguments.Tests {
			checkID(t.ID)
			if !checkTool(t.ID, t.Tool) {
				continue
			}
			checkArgs(t.ID, t.Tool, t.RequiredArgs)
			checkArgs(t.ID, t.Tool, sortedKeys(t.ExpectedArgs))
			checkArgs(t.ID, t.Tool, t.ForbiddenArgs)
		}
	}
	return issues
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// EvaluateToolSelection runs tool selection tests against a selector
func EvaluateToolSelection(suite *ToolSelectionSuite, selector ToolSelector) (*EvalMetrics, []ToolSelectionResult) {
	metrics := newMetrics()
	var results []ToolSelectionResult

	for _, test := range suite.Tests {
		metrics.TotalTests++
		metrics.category(test.Category).Total++
		metrics.tool(test.ExpectedTool).ExpectedCount++

		actualTool, actualArgs, err := selector.SelectTool(test.Input)
		result := ToolSelectionResult{
			TestID:       test.ID,
			Input:        test.Input,
			ExpectedTool: test.ExpectedTool,
			ActualTool:   actualTool,
			Passed:       true,
		}
		if err != nil {
			result.Passed = false
			result.Errors = append(result.Errors, fmt.Sprintf("selector error: %v", err))
		}

		if actualTool != test.ExpectedTool {
			result.Passed = false
			result.Errors = append(result.Errors,
				fmt.Sprintf("wrong tool: expected %s, got %s", test.ExpectedTool, actualTool))
			metrics.tool(test.ExpectedTool).FalseNegatives++
			metrics.tool(actualTool).FalsePositives++
		} else {
			metrics.tool(test.ExpectedTool).CorrectCount++
		}
		metrics.tool(actualTool).SelectedCount++

		if slices.Contains(test.NotTools, actualTool) {
			result.Passed = false
			result.Errors = append(result.Errors, fmt.Sprintf("selected forbidden tool: %s", actualTool))
		}

		for _, key := range sortedKeys(test.ExpectedArgs) {
			expectedValue := test.ExpectedArgs[key]
			actualValue, exists := actualArgs[key]
			if !exists {
				result.Passed = false
				result.Errors = append(result.Errors,
					fmt.Sprintf("missing arg %s (expected %v)", key, expectedValue))
			} else if !compareValues(expectedValue, actualValue) {
				result.Passed = false
				result.Errors = append(result.Errors,
					fmt.Sprintf("wrong arg %s: expected %v, got %v", key, expectedValue, actualValue))
			}
		}

		if result.Passed {
			metrics.PassedTests++
			metrics.category(test.Category).Passed++
		} else {
			metrics.FailedTests++
			metrics.category(test.Category).Failed++
			metrics.FailedDetails = append(metrics.FailedDetails,
				fmt.Sprintf("[%s] %s: %s", test.ID, test.Input, strings.Join(result.Errors, "; ")))
		}
		results = append(results, result)
	}

	metrics.finish()
	return metrics, results
}

// EvaluateConfusionPairs runs confusion pair tests against a selector
func EvaluateConfusionPairs(suite *ConfusionPairSuite, selector ToolSelector) (*EvalMetrics, []ConfusionPairResult) {
	metrics := newMetrics()
	var results []ConfusionPairResult

	for _, pair := range suite.Pairs {
		for _, test := range pair.Tests {
			metrics.TotalTests++
			metrics.category(pair.ID).Total++
			metrics.tool(test.Expected).ExpectedCount++

			actualTool, _, err := selector.SelectTool(test.Input)
			result := ConfusionPairResult{
				PairID:       pair.ID,
				TestInput:    test.Input,
				ExpectedTool: test.Expected,
				ActualTool:   actualTool,
				Reason:       test.Reason,
				Passed:       err == nil && actualTool == test.Expected,
			}
			metrics.tool(actualTool).SelectedCount++

			if result.Passed {
				metrics.PassedTests++
				metrics.category(pair.ID).Passed++
				metrics.tool(test.Expected).CorrectCount++
			} else {
				metrics.FailedTests++
				metrics.category(pair.ID).Failed++
				metrics.tool(test.Expected).FalseNegatives++
				metrics.tool(actualTool).FalsePositives++
				metrics.FailedDetails = append(metrics.FailedDetails,
					fmt.Sprintf("[%s] %s: expected %s, got %s (%s)",
						pair.ID, test.Input, test.Expected, actualTool, test.Reason))
			}
			results = append(results, result)
		}
	}

	metrics.finish()
	return metrics, results
}

// EvaluateArguments runs argument correctness tests against a selector.
// A selector error or a wrong tool fails the test.
func EvaluateArguments(suite *ArgumentSuite, selector ToolSelector) (*EvalMetrics, []ArgumentResult) {
	metrics := newMetrics()
	var results []ArgumentResult

	for _, test := range suite.Tests {
		metrics.TotalTests++
		metrics.category(test.Tool).Total++

		actualTool, actualArgs, err := selector.SelectTool(test.Input)
		result := ArgumentResult{
			TestID:    test.ID,
			Tool:      test.Tool,
			Input:     test.Input,
			Passed:    true,
			WrongArgs: make(map[string]string),
		}

		switch {
		case err != nil:
			result.Passed = false
			result.Error = fmt.Sprintf("selector error: %v", err)
		case actualTool != test.Tool:
			result.Passed = false
			result.Error = fmt.Sprintf("wrong tool: expected %s, got %s", test.Tool, actualTool)
		default:
			for _, reqArg := range test.RequiredArgs {
				if _, exists := actualArgs[reqArg]; !exists {
					result.Passed = false
					result.MissingArgs = append(result.MissingArgs, reqArg)
				}
			}
			for _, key := range sortedKeys(test.ExpectedArgs) {
				actualValue, exists := actualArgs[key]
				if !exists {
					if !slices.Contains(result.MissingArgs, key) {
						result.MissingArgs = append(result.MissingArgs, key)
					}
					result.Passed = false
				} else if !compareValues(test.ExpectedArgs[key], actualValue) {
					result.Passed = false
					result.WrongArgs[key] = fmt.Sprintf("expected %v, got %v", test.ExpectedArgs[key], actualValue)
				}
			}
			for _, forbidden := range test.ForbiddenArgs {
				if _, exists := actualArgs[forbidden]; exists {
					result.Passed = false
					result.ForbiddenHit = append(result.ForbiddenHit, forbidden)
				}
			}
		}

		if result.Passed {
			metrics.PassedTests++
			metrics.category(test.Tool).Passed++
		} else {
			metrics.FailedTests++
			metrics.category(test.Tool).Failed++
			metrics.FailedDetails = append(metrics.FailedDetails,
				fmt.Sprintf("[%s] %s: %s", test.ID, test.Input, result.describe()))
		}
		results = append(results, result)
	}

	metrics.finish()
	return metrics, results
}

func (r ArgumentResult) describe() string {
	var parts []string
	if r.Error != "" {
		parts = append(parts, r.Error)
	}
	if len(r.MissingArgs) > 0 {
		parts = append(parts, fmt.Sprintf("missing: %v", r.MissingArgs))
	}
	wrong := make([]string, 0, len(r.WrongArgs))
	for k, v := range r.WrongArgs {
		wrong = append(wrong, fmt.Sprintf("%s: %s", k, v))
	}
	sort.Strings(wrong)
	parts = append(parts, wrong...)
	if len(r.ForbiddenHit) > 0 {
		parts = append(parts, fmt.Sprintf("forbidden: %v", r.ForbiddenHit))
	}
	return strings.Join(parts, "; ")
}

// compareValues compares expected and actual values. JSON decodes numbers
// as float64, so integers compare by value.
func compareValues(expected, actual any) bool {
	if expected == nil || actual == nil {
		return expected == nil && actual == nil
	}

	ev := reflect.ValueOf(expected)
	av := reflect.ValueOf(actual)

	if n, ok := number(ev); ok {
		if m, ok := number(av); ok {
			return n == m
		}
		return false
	}

	if ev.Kind() == reflect.Slice && av.Kind() == reflect.Slice {
		if ev.Len() != av.Len() {
			return false
		}
		for i := 0; i < ev.Len(); i++ {
			if !compareValues(ev.Index(i).Interface(), av.Index(i).Interface()) {
				return false
			}
		}
		return true
	}

	return reflect.DeepEqual(expected, actual)
}

func number(v reflect.Value) (float64, bool) {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int()), true
	case reflect.Float32, reflect.Float64:
		return v.Float(), true
	}
	return 0, false
}

// FormatMetrics returns a human-readable summary of evaluation metrics
func FormatMetrics(metrics *EvalMetrics, suiteName string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "\n=== %s ===\n", suiteName)
	fmt.Fprintf(&b, "Total: %d tests\n", metrics.TotalTests)
	fmt.Fprintf(&b, "Passed: %d (%.1f%%)\n", metrics.PassedTests, metrics.Accuracy*100)
	fmt.Fprintf(&b, "Failed: %d\n", metrics.FailedTests)

	if len(metrics.ByCategory) > 0 {
		b.WriteString("\nBy Category:\n")
		names := make([]string, 0, len(metrics.ByCategory))
		for name := range metrics.ByCategory {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			m := metrics.ByCategory[name]
			if m.Total > 0 {
				acc := float64(m.Passed) / float64(m.Total) * 100
				fmt.Fprintf(&b, "  %-25s: %d/%d (%.0f%%)\n", name, m.Passed, m.Total, acc)
			}
		}
	}

	details := metrics.FailedDetails
	if len(details) > 10 {
		fmt.Fprintf(&b, "\nFailed Tests (showing first 10 of %d):\n", len(details))
		details = details[:10]
	} else if len(details) > 0 {
		b.WriteString("\nFailed Tests:\n")
	}
	for _, detail := range details {
		fmt.Fprintf(&b, "  - %s\n", detail)
	}

	return b.String()
}
