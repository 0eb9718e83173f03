package errors

import (
	"strings"
	"testing"
)

func TestNewCompileError(t *testing.T) {
	source := `let a = 1
let b = +
let c = 3`
	snippet := ExtractSourceSnippet(source, 2)

	err := NewCompileError(
		"unexpected token '+'",
		2,
		9,
		snippet,
		"an expression was expected here",
	)

	if err.Message != "unexpected token '+'" {
		t.Errorf("Message = %q, want %q", err.Message, "unexpected token '+'")
	}
	if err.Line != 2 {
		t.Errorf("Line = %d, want 2", err.Line)
	}
	if err.Column != 9 {
		t.Errorf("Column = %d, want 9", err.Column)
	}
	if err.ErrorType != "Compile Error" {
		t.Errorf("ErrorType = %q, want %q", err.ErrorType, "Compile Error")
	}
}

func TestNewParseError(t *testing.T) {
	source := `let xs = [1, 2, 3`
	snippet := ExtractSourceSnippet(source, 1)

	err := NewParseError("missing closing ']'", 1, 18, snippet, "add a closing ']'")
	if err.ErrorType != "Parse Error" {
		t.Errorf("ErrorType = %q, want %q", err.ErrorType, "Parse Error")
	}
}

func TestCompileErrorWithTypesSetsTypeErrorKind(t *testing.T) {
	err := NewCompileError("type mismatch", 1, 1, "", "")
	err.WithTypes("Integer", "String")

	if err.ErrorType != "Type Error" {
		t.Errorf("ErrorType = %q, want %q", err.ErrorType, "Type Error")
	}
	if err.ExpectedType != "Integer" || err.ActualType != "String" {
		t.Errorf("ExpectedType/ActualType = %q/%q, want Integer/String", err.ExpectedType, err.ActualType)
	}
}

func TestNewRuntimeErrorFormatsSpecShape(t *testing.T) {
	err := NewRuntimeError(TypeError, 7, "cannot add Integer and String")

	if err.Kind != TypeError {
		t.Errorf("Kind = %q, want %q", err.Kind, TypeError)
	}
	want := "Runtime error at line 7: TypeError(cannot add Integer and String)"
	if err.Message != want {
		t.Errorf("Message = %q, want %q", err.Message, want)
	}
}

func TestRuntimeErrorWithStackFrameAppendsFrames(t *testing.T) {
	err := NewRuntimeError(UncaughtExc, 3, "boom")
	err.WithStackFrame("fib", "main.ch", 3).WithStackFrame("main", "main.ch", 10)

	if len(err.StackTrace) != 2 {
		t.Fatalf("len(StackTrace) = %d, want 2", len(err.StackTrace))
	}
	if err.StackTrace[0].Function != "fib" || err.StackTrace[1].Function != "main" {
		t.Errorf("StackTrace = %+v, want [fib main]", err.StackTrace)
	}
}

func TestFormatErrorHandlesNilAndUnknownErrors(t *testing.T) {
	if got := FormatError(nil); got != "" {
		t.Errorf("FormatError(nil) = %q, want empty string", got)
	}

	plain := &plainError{"disk full"}
	got := FormatError(plain)
	if !strings.Contains(got, "disk full") {
		t.Errorf("FormatError(plain) = %q, want it to contain the message", got)
	}
}

type plainError struct{ msg string }

func (e *plainError) Error() string { return e.msg }

func TestWithSuggestionAttachesToCompileError(t *testing.T) {
	ce := NewCompileError("bad", 1, 1, "", "")
	got := WithSuggestion(ce, "try again")
	wrapped, ok := got.(*CompileError)
	if !ok {
		t.Fatalf("got %T, want *CompileError", got)
	}
	if wrapped.Suggestion != "try again" {
		t.Errorf("Suggestion = %q, want %q", wrapped.Suggestion, "try again")
	}
}

func TestExtractSourceSnippetBoundsToSourceLength(t *testing.T) {
	source := "a\nb\nc"
	if got := ExtractSourceSnippet(source, 0); got != "" {
		t.Errorf("line 0 snippet = %q, want empty", got)
	}
	if got := ExtractSourceSnippet(source, 10); got != "" {
		t.Errorf("out-of-range line snippet = %q, want empty", got)
	}
	got := ExtractSourceSnippet(source, 2)
	want := "a\nb\nc"
	if got != want {
		t.Errorf("snippet = %q, want %q", got, want)
	}
}
