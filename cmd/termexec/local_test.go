package main

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"termexec/internal/shell"
)

func TestPrintResult(t *testing.T) {
	tests := []struct {
		name       string
		res        shell.Result
		wantOut    string
		wantErrOut string
		wantCode   int
	}{
		{"success", shell.SuccessResult("hi\n", "", 0), "hi\n", "", 0},
		{"stderr and status", shell.SuccessResult("", "oops\n", 3), "", "oops\n", 3},
		{"cd", shell.DirectoryChangedResult("/tmp"), "/tmp\n", "", 0},
		{"empty", shell.EmptyResult(), "", "", 0},
		{
			"error",
			shell.ErrorResult(fmt.Errorf("%w: nope", shell.ErrDirectoryNotFound)),
			"", string(shell.Category(shell.ErrDirectoryNotFound)) + ": ", 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out, errOut bytes.Buffer
			code := printResult(&out, &errOut, tt.res)
			if code != tt.wantCode {
				t.Errorf("code = %d, want %d", code, tt.wantCode)
			}
			if out.String() != tt.wantOut {
				t.Errorf("stdout = %q, want %q", out.String(), tt.wantOut)
			}
			if !bytes.HasPrefix(errOut.Bytes(), []byte(tt.wantErrOut)) {
				t.Errorf("stderr = %q, want prefix %q", errOut.String(), tt.wantErrOut)
			}
		})
	}
}

func TestExitCode(t *testing.T) {
	if statusError(0) != nil {
		t.Error("status 0 should not be an error")
	}
	if got := exitCode(statusError(7)); got != 7 {
		t.Errorf("exitCode = %d, want 7", got)
	}
	if got := exitCode(errors.New("boom")); got != 1 {
		t.Errorf("exitCode = %d, want 1", got)
	}
}
