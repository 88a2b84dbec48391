package fonts

import (
	"errors"
	"io"
	"unicode/utf16"

	"github.com/wudi/pdfview/scanner"
)

// CMap maps character codes to CIDs and/or Unicode text. It covers both
// ToUnicode streams (bfchar/bfrange) and embedded encoding CMaps (cidchar/cidrange).
type CMap struct {
	spaces    []codespace
	uni       map[codeKey]string
	uniRanges []uniRange
	cids      map[codeKey]uint32
	cidRanges []cidRange
	identity  bool
}

type codeKey struct {
	n    int
	code uint32
}

type codespace struct {
	lo, hi []byte
}

type uniRange struct {
	n      int
	lo, hi uint32
	base   []rune   // incrementing destination
	list   []string // explicit destinations
}

type cidRange struct {
	n      int
	lo, hi uint32
	cid    uint32
}

// IdentityCMap is the predefined Identity-H/V encoding: two-byte codes, CID = code.
func IdentityCMap() *CMap {
	return &CMap{
		spaces:   []codespace{{lo: []byte{0, 0}, hi: []byte{0xff, 0xff}}},
		identity: true,
	}
}

// ParseCMap reads a CMap program. Unknown operators are ignored.
func ParseCMap(data []byte) (*CMap, error) {
	cm := &CMap{
		uni:  make(map[codeKey]string),
		cids: make(map[codeKey]uint32),
	}
	s := scanner.New(data, scanner.Config{ContentStream: true})
	var prev scanner.Token
	next := func() (scanner.Token, bool) {
		tok, err := s.Next()
		if err != nil {
			return scanner.Token{}, false
		}
		return tok, true
	}
	for {
		tok, err := s.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return cm, err
		}
		switch tok.Keyword() {
		case "usecmap":
			if name, ok := prev.Value.(string); ok && prev.Type == scanner.TokenName {
				if name == "Identity-H" || name == "Identity-V" {
					cm.identity = true
				}
			}
		case "begincodespacerange":
			for {
				lo, ok := next()
				if !ok || lo.Keyword() == "endcodespacerange" {
					break
				}
				hi, ok := next()
				if !ok {
					break
				}
				lb, _ := lo.Value.([]byte)
				hb, _ := hi.Value.([]byte)
				if len(lb) > 0 && len(lb) == len(hb) && len(lb) <= 4 {
					cm.spaces = append(cm.spaces, codespace{lo: lb, hi: hb})
				}
			}
		case "beginbfchar":
			for {
				src, ok := next()
				if !ok || src.Keyword() == "endbfchar" {
					break
				}
				dst, ok := next()
				if !ok {
					break
				}
				sb, _ := src.Value.([]byte)
				if len(sb) == 0 || len(sb) > 4 {
					continue
				}
				cm.uni[codeKey{len(sb), beUint(sb)}] = destString(dst)
			}
		case "beginbfrange":
			for {
				lo, ok := next()
				if !ok || lo.Keyword() == "endbfrange" {
					break
				}
				hi, ok := next()
				if !ok {
					break
				}
				dst, ok := next()
				if !ok {
					break
				}
				lb, _ := lo.Value.([]byte)
				hb, _ := hi.Value.([]byte)
				if len(lb) == 0 || len(lb) > 4 || len(hb) != len(lb) {
					if dst.Type == scanner.TokenArray {
						skipArray(s)
					}
					continue
				}
				r := uniRange{n: len(lb), lo: beUint(lb), hi: beUint(hb)}
				if dst.Type == scanner.TokenArray {
					r.list = readStringArray(s)
				} else if b, ok := dst.Value.([]byte); ok {
					r.base = utf16Runes(b)
				}
				if r.hi >= r.lo {
					cm.uniRanges = append(cm.uniRanges, r)
				}
			}
		case "begincidchar":
			for {
				src, ok := next()
				if !ok || src.Keyword() == "endcidchar" {
					break
				}
				dst, ok := next()
				if !ok {
					break
				}
				sb, _ := src.Value.([]byte)
				cid, _ := dst.Int()
				if len(sb) > 0 && len(sb) <= 4 {
					cm.cids[codeKey{len(sb), beUint(sb)}] = uint32(cid)
				}
			}
		case "begincidrange":
			for {
				lo, ok := next()
				if !ok || lo.Keyword() == "endcidrange" {
					break
				}
				hi, ok := next()
				if !ok {
					break
				}
				dst, ok := next()
				if !ok {
					break
				}
				lb, _ := lo.Value.([]byte)
				hb, _ := hi.Value.([]byte)
				cid, _ := dst.Int()
				if len(lb) > 0 && len(lb) <= 4 && len(hb) == len(lb) {
					cm.cidRanges = append(cm.cidRanges, cidRange{n: len(lb), lo: beUint(lb), hi: beUint(hb), cid: uint32(cid)})
				}
			}
		}
		prev = tok
	}
	return cm, nil
}

// NextCode splits the leading character code off b using the codespace ranges.
// Without ranges it falls back to the byte lengths seen in the mappings, then to one byte.
func (c *CMap) NextCode(b []byte) (code uint32, n int) {
	if len(b) == 0 {
		return 0, 0
	}
	if len(c.spaces) > 0 {
		for l := 1; l <= 4 && l <= len(b); l++ {
			for _, sp := range c.spaces {
				if len(sp.lo) != l || !inSpace(b[:l], sp) {
					continue
				}
				return beUint(b[:l]), l
			}
		}
		// No range matched: consume the shortest codespace length.
		l := 4
		for _, sp := range c.spaces {
			l = min(l, len(sp.lo))
		}
		l = min(l, len(b))
		return beUint(b[:l]), l
	}
	for l := 4; l >= 1; l-- {
		if l > len(b) {
			continue
		}
		if _, ok := c.Unicode(beUint(b[:l]), l); ok {
			return beUint(b[:l]), l
		}
	}
	return uint32(b[0]), 1
}

// Unicode returns the text mapped to code (n bytes wide).
func (c *CMap) Unicode(code uint32, n int) (string, bool) {
	if s, ok := c.uni[codeKey{n, code}]; ok {
		return s, true
	}
	for _, r := range c.uniRanges {
		if r.n != n || code < r.lo || code > r.hi {
			continue
		}
		off := int(code - r.lo)
		if r.list != nil {
			if off < len(r.list) {
				return r.list[off], true
			}
			return "", false
		}
		if len(r.base) == 0 {
			return "", false
		}
		out := append([]rune(nil), r.base...)
		out[len(out)-1] += rune(off)
		return string(out), true
	}
	return "", false
}

// CID returns the CID selected by code.
func (c *CMap) CID(code uint32, n int) (uint32, bool) {
	if cid, ok := c.cids[codeKey{n, code}]; ok {
		return cid, true
	}
	for _, r := range c.cidRanges {
		if r.n == n && code >= r.lo && code <= r.hi {
			return r.cid + code - r.lo, true
		}
	}
	if c.identity {
		return code, true
	}
	return 0, false
}

func inSpace(b []byte, sp codespace) bool {
	for i := range b {
		if b[i] < sp.lo[i] || b[i] > sp.hi[i] {
			return false
		}
	}
	return true
}

func beUint(b []byte) uint32 {
	var v uint32
	for _, c := range b {
		v = v<<8 | uint32(c)
	}
	return v
}

func destString(tok scanner.Token) string {
	switch v := tok.Value.(type) {
	case []byte:
		return string(utf16Runes(v))
	case string:
		if tok.Type == scanner.TokenName {
			return GlyphText(v)
		}
	}
	return ""
}

func readStringArray(s scanner.Scanner) []string {
	var out []string
	for {
		tok, err := s.Next()
		if err != nil || tok.Keyword() == "]" {
			return out
		}
		out = append(out, destString(tok))
	}
}

func skipArray(s scanner.Scanner) {
	for {
		tok, err := s.Next()
		if err != nil || tok.Keyword() == "]" {
			return
		}
	}
}

// utf16Runes decodes UTF-16BE; an odd trailing byte is dropped.
func utf16Runes(b []byte) []rune {
	units := make([]uint16, 0, len(b)/2)
	for i := 0; i+1 < len(b); i += 2 {
		units = append(units, uint16(b[i])<<8|uint16(b[i+1]))
	}
	if len(b) == 1 {
		return []rune{rune(b[0])}
	}
	return utf16.Decode(units)
}
