package layout

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrPageTooSmall reports a field that does not fit into a single page.
var ErrPageTooSmall = errors.New("field wider than page size")

// Paginate splits fields into pages whose register span does not exceed
// maxRegisters. Fields are never split across pages.
func Paginate(fields []Field, maxRegisters int) ([][]Field, error) {
	if maxRegisters <= 0 {
		return nil, fmt.Errorf("page size must be positive, got %d", maxRegisters)
	}
	var pages [][]Field
	var page []Field
	pageStart := 0
	for _, field := range fields {
		if field.Count > maxRegisters {
			return nil, fmt.Errorf("%q (%d registers): %w %d", field.Name, field.Count, ErrPageTooSmall, maxRegisters)
		}
		if len(page) > 0 && field.End()-pageStart+1 > maxRegisters {
			pages = append(pages, page)
			page = nil
		}
		if len(page) == 0 {
			pageStart = field.Start
		}
		page = append(page, field)
	}
	if len(page) > 0 {
		pages = append(pages, page)
	}
	return pages, nil
}

// ParseDerivedAddress splits a derived address expression such as
// Single(HR100,HR101) into its type tag and register list.
func ParseDerivedAddress(address string) (string, []int, error) {
	open := strings.IndexByte(address, '(')
	if open < 0 || !strings.HasSuffix(address, ")") {
		return "", nil, fmt.Errorf("derived address %q: missing parentheses", address)
	}
	tag := address[:open]
	inner := address[open+1 : len(address)-1]
	if inner == "" {
		return "", nil, fmt.Errorf("derived address %q: no registers", address)
	}
	parts := strings.Split(inner, ",")
	registers := make([]int, 0, len(parts))
	for _, part := range parts {
		if !strings.HasPrefix(part, "HR") {
			return "", nil, fmt.Errorf("derived address %q: %q is not a holding register", address, part)
		}
		reg, err := strconv.Atoi(part[2:])
		if err != nil {
			return "", nil, fmt.Errorf("derived address %q: %w", address, err)
		}
		registers = append(registers, reg)
	}
	return tag, registers, nil
}
