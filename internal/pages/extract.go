// Package pages implements the page extraction engine: a pure
// transformation from PDF bytes plus a page selection to the bytes of a
// new, independent PDF.
package pages

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

var (
	// ErrCorruptSource reports source bytes that do not parse as a PDF.
	ErrCorruptSource = errors.New("corrupt source document")
	// ErrEmptySelection reports an empty page selection.
	ErrEmptySelection = errors.New("page selection is empty")
	// ErrPageOutOfRange reports a 1-based page index outside the source document.
	ErrPageOutOfRange = errors.New("page index out of range")
	// ErrOrderOutOfRange reports an order position outside the page selection.
	ErrOrderOutOfRange = errors.New("order position out of range")
)

// PageCount returns the number of pages in the given PDF bytes.
func PageCount(src []byte) (count int, err error) {
	// The reader library panics on some malformed inputs.
	defer func() {
		if rec := recover(); rec != nil {
			count = 0
			err = fmt.Errorf("%w: %v", ErrCorruptSource, rec)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(src), int64(len(src)))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrCorruptSource, err)
	}
	return reader.NumPage(), nil
}

// ExtractPages builds a new PDF containing exactly the selected pages.
//
// pages holds 1-based source page indices. order, when its length equals
// len(pages), holds 1-based positions into pages and dictates the output
// sequence; any other length leaves the order of pages authoritative.
// Out-of-range indices fail, they are never clamped or dropped. The
// source bytes are not modified.
func ExtractPages(src []byte, pageNumbers []int, order []int) ([]byte, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(src), conf)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSource, err)
	}

	effective, err := effectiveOrder(pageNumbers, order, ctx.PageCount)
	if err != nil {
		return nil, err
	}

	selected := make([]string, len(effective))
	for i, p := range effective {
		selected[i] = strconv.Itoa(p)
	}

	var buf bytes.Buffer
	if err := api.Collect(bytes.NewReader(src), &buf, selected, conf); err != nil {
		return nil, fmt.Errorf("collect pages: %w", err)
	}
	return buf.Bytes(), nil
}

// effectiveOrder validates the selection and resolves the output sequence
// of 1-based source page indices.
func effectiveOrder(pageNumbers, order []int, pageCount int) ([]int, error) {
	if len(pageNumbers) == 0 {
		return nil, ErrEmptySelection
	}
	for _, p := range pageNumbers {
		if p < 1 || p > pageCount {
			return nil, fmt.Errorf("%w: page %d of %d", ErrPageOutOfRange, p, pageCount)
		}
	}

	if len(order) != len(pageNumbers) {
		out := make([]int, len(pageNumbers))
		copy(out, pageNumbers)
		return out, nil
	}

	out := make([]int, len(order))
	for i, pos := range order {
		if pos < 1 || pos > len(pageNumbers) {
			return nil, fmt.Errorf("%w: position %d of %d", ErrOrderOutOfRange, pos, len(pageNumbers))
		}
		out[i] = pageNumbers[pos-1]
	}
	return out, nil
}
