package engine

import (
	"fmt"
	"regexp"
	"strconv"
)

// TemplateError carries the position information text/template buries in its
// error strings so step failures point at the offending template.
type TemplateError struct {
	Name    string
	Line    int
	Column  int
	Message string
}

func NewTemplateError(name string, err error) *TemplateError {
	te := &TemplateError{
		Name:    name,
		Message: err.Error(),
	}

	te.parseError(err.Error())

	return te
}

func (te *TemplateError) parseError(errStr string) {
	// Parse Go template error format: template: name:line:col: error message
	re := regexp.MustCompile(`template: [^:]+:(\d+):(\d+): (.+)`)
	matches := re.FindStringSubmatch(errStr)
	if len(matches) > 3 {
		if line, err := strconv.Atoi(matches[1]); err == nil {
			te.Line = line
		}
		if col, err := strconv.Atoi(matches[2]); err == nil {
			te.Column = col
		}
		te.Message = matches[3]
	}

	// Also try parsing simpler format: template: name:line: error
	if te.Line == 0 {
		re = regexp.MustCompile(`template: [^:]+:(\d+): (.+)`)
		matches = re.FindStringSubmatch(errStr)
		if len(matches) > 2 {
			if line, err := strconv.Atoi(matches[1]); err == nil {
				te.Line = line
			}
			te.Message = matches[2]
		}
	}
}

func (te *TemplateError) Error() string {
	if te.Line > 0 && te.Column > 0 {
		return fmt.Sprintf("template %s:%d:%d: %s", te.Name, te.Line, te.Column, te.Message)
	}
	if te.Line > 0 {
		return fmt.Sprintf("template %s:%d: %s", te.Name, te.Line, te.Message)
	}
	return fmt.Sprintf("template %s: %s", te.Name, te.Message)
}
