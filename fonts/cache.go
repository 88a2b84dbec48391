package fonts

import (
	"sync"

	"github.com/wudi/pdfview/ir/semantic"
	"github.com/wudi/pdfview/observability"
)

// Cache shares faces between renders and extraction of the same document.
type Cache struct {
	logger observability.Logger

	mu    sync.Mutex
	faces map[*semantic.Font]*Face
	def   *Face
}

func NewCache(logger observability.Logger) *Cache {
	return &Cache{logger: observability.OrNop(logger), faces: make(map[*semantic.Font]*Face)}
}

// Face returns the face for f, building it on first use. A nil font maps to the default face.
func (c *Cache) Face(f *semantic.Font) *Face {
	c.mu.Lock()
	defer c.mu.Unlock()
	if f == nil {
		if c.def == nil {
			c.def = NewFace(nil, c.logger)
		}
		return c.def
	}
	if face, ok := c.faces[f]; ok {
		return face
	}
	face := NewFace(f, c.logger)
	c.faces[f] = face
	return face
}
