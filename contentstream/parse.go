// Package contentstream parses page content streams into operations and
// interprets them against a page's resources, reporting paths, text and
// images to a Device.
package contentstream

import (
	"errors"
	"fmt"
	"io"

	"github.com/wudi/pdfview/ir/semantic"
	"github.com/wudi/pdfview/scanner"
)

// maxOperands bounds the operand stack; longer runs are garbage and dropped.
const maxOperands = 64

// Parse tokenizes a content stream. On a syntax error it returns the
// operations read so far together with the error.
func Parse(data []byte) ([]semantic.Operation, error) {
	s := scanner.New(data, scanner.Config{ContentStream: true, MaxArrayDepth: 32, MaxDictDepth: 32})
	var ops []semantic.Operation
	var operands []semantic.Operand
	for {
		tok, err := s.Next()
		if errors.Is(err, io.EOF) {
			return ops, nil
		}
		if err != nil {
			return ops, fmt.Errorf("content stream at offset %d: %w", s.Position(), err)
		}
		if tok.Type != scanner.TokenKeyword {
			op, err := operand(s, tok)
			if err != nil {
				return ops, fmt.Errorf("content stream at offset %d: %w", s.Position(), err)
			}
			if op != nil && len(operands) < maxOperands {
				operands = append(operands, op)
			}
			continue
		}
		kw := tok.Keyword()
		switch kw {
		case "]", ">>", "{", "}", ">":
			continue
		case "BI":
			img, err := inlineImage(s)
			if err != nil {
				return ops, fmt.Errorf("inline image at offset %d: %w", tok.Pos, err)
			}
			ops = append(ops, semantic.Operation{Operator: "BI", Operands: []semantic.Operand{img}})
			operands = operands[:0]
			continue
		}
		ops = append(ops, semantic.Operation{Operator: kw, Operands: append([]semantic.Operand(nil), operands...)})
		operands = operands[:0]
	}
}

func operand(s scanner.Scanner, tok scanner.Token) (semantic.Operand, error) {
	switch tok.Type {
	case scanner.TokenNumber:
		v, _ := tok.Float()
		return semantic.NumberOperand{Value: v}, nil
	case scanner.TokenName:
		name, _ := tok.Value.(string)
		return semantic.NameOperand{Value: name}, nil
	case scanner.TokenString:
		b, _ := tok.Value.([]byte)
		return semantic.StringOperand{Value: b}, nil
	case scanner.TokenBoolean:
		b, _ := tok.Value.(bool)
		return semantic.BoolOperand{Value: b}, nil
	case scanner.TokenArray:
		var arr semantic.ArrayOperand
		for {
			next, err := s.Next()
			if err != nil {
				return nil, err
			}
			if next.Keyword() == "]" {
				return arr, nil
			}
			v, err := operand(s, next)
			if err != nil {
				return nil, err
			}
			if v != nil {
				arr.Values = append(arr.Values, v)
			}
		}
	case scanner.TokenDict:
		return dictOperand(s, ">>")
	}
	return nil, nil
}

// dictOperand reads key/value pairs until the terminator keyword.
func dictOperand(s scanner.Scanner, end string) (semantic.DictOperand, error) {
	d := semantic.DictOperand{Values: make(map[string]semantic.Operand)}
	for {
		key, err := s.Next()
		if err != nil {
			return d, err
		}
		if key.Keyword() == end {
			return d, nil
		}
		name, ok := key.Value.(string)
		if !ok || key.Type != scanner.TokenName {
			continue
		}
		val, err := s.Next()
		if err != nil {
			return d, err
		}
		v, err := operand(s, val)
		if err != nil {
			return d, err
		}
		if v == nil {
			if kw := val.Keyword(); kw != "" {
				d.Values[name] = semantic.NameOperand{Value: kw}
			}
			continue
		}
		d.Values[name] = v
	}
}

// inlineImage reads the BI dictionary; the scanner hands the payload back as
// a single token when it reaches ID.
func inlineImage(s scanner.Scanner) (semantic.InlineImageOperand, error) {
	img := semantic.InlineImageOperand{Image: semantic.DictOperand{Values: make(map[string]semantic.Operand)}}
	for {
		tok, err := s.Next()
		if err != nil {
			return img, err
		}
		if tok.Type == scanner.TokenInlineImage {
			img.Data, _ = tok.Value.([]byte)
			return img, nil
		}
		name, ok := tok.Value.(string)
		if tok.Type != scanner.TokenName || !ok {
			continue
		}
		val, err := s.Next()
		if err != nil {
			return img, err
		}
		if val.Type == scanner.TokenInlineImage {
			img.Data, _ = val.Value.([]byte)
			return img, nil
		}
		v, err := operand(s, val)
		if err != nil {
			return img, err
		}
		if v != nil {
			img.Image.Values[name] = v
		}
	}
}
