package core

import (
	"fmt"
	"strings"
	"sync"
)

// WarningKind classifies a recoverable problem found while reading a document.
type WarningKind int

const (
	WarnSyntax          WarningKind = iota // malformed token or object
	WarnMissingObject                      // reference to an object that cannot be found
	WarnXRef                               // cross-reference data unusable, recovery used
	WarnUnknownOperator                    // content stream operator not recognised
	WarnOperands                           // wrong number or type of operands
	WarnCycle                              // reference chain too long or cyclic
	WarnFilter                             // stream could not be decoded
	WarnFont                               // font missing or unusable
	WarnState                              // graphics state or marked-content imbalance
	WarnRecursion                          // form XObject nesting limit reached
)

func (k WarningKind) String() string {
	switch k {
	case WarnSyntax:
		return "syntax"
	case WarnMissingObject:
		return "missing-object"
	case WarnXRef:
		return "xref"
	case WarnUnknownOperator:
		return "unknown-operator"
	case WarnOperands:
		return "operands"
	case WarnCycle:
		return "cycle"
	case WarnFilter:
		return "filter"
	case WarnFont:
		return "font"
	case WarnState:
		return "state"
	case WarnRecursion:
		return "recursion"
	}
	return "unknown"
}

// Warning describes a problem that was worked around.
type Warning struct {
	Kind    WarningKind
	Message string
	// Offset is the byte position the problem relates to, or -1.
	Offset int64
	// Key is the indirect object involved, if any.
	Key ObjectKey
}

func (w Warning) String() string {
	var sb strings.Builder
	sb.WriteString(w.Kind.String())
	if w.Key != (ObjectKey{}) {
		fmt.Fprintf(&sb, " [obj %s]", w.Key)
	}
	if w.Offset >= 0 {
		fmt.Fprintf(&sb, " @%d", w.Offset)
	}
	sb.WriteString(": ")
	sb.WriteString(w.Message)
	return sb.String()
}

// WarningSink receives warnings. Implementations must be safe for
// concurrent use.
type WarningSink interface {
	Warn(Warning)
}

// WarnFunc adapts a function to WarningSink.
type WarnFunc func(Warning)

func (f WarnFunc) Warn(w Warning) { f(w) }

// Discard drops every warning.
var Discard WarningSink = WarnFunc(func(Warning) {})

// Warnings collects warnings in arrival order.
type Warnings struct {
	mu   sync.Mutex
	list []Warning
}

func (ws *Warnings) Warn(w Warning) {
	ws.mu.Lock()
	ws.list = append(ws.list, w)
	ws.mu.Unlock()
}

// List returns a copy of the collected warnings
func (ws *Warnings) List() []Warning {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	out := make([]Warning, len(ws.list))
	copy(out, ws.list)
	return out
}

func (ws *Warnings) Len() int {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return len(ws.list)
}

// Count returns how many collected warnings have the given kind
func (ws *Warnings) Count(kind WarningKind) int {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	n := 0
	for _, w := range ws.list {
		if w.Kind == kind {
			n++
		}
	}
	return n
}

// FormatWarnings renders warnings one per line.
func FormatWarnings(ws []Warning) string {
	if len(ws) == 0 {
		return ""
	}
	var sb strings.Builder
	for i, w := range ws {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(w.String())
	}
	return sb.String()
}

// Warnf formats a warning and sends it to sink, which may be nil.
func Warnf(sink WarningSink, kind WarningKind, offset int64, key ObjectKey, format string, args ...interface{}) {
	if sink == nil {
		return
	}
	sink.Warn(Warning{Kind: kind, Message: fmt.Sprintf(format, args...), Offset: offset, Key: key})
}
