package document

import (
	"bytes"
	"errors"
	"io"
	"strconv"
	"strings"

	j "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/reoring/refbundle/diag"
)

// jsonFrame is one open container while building the tree.
type jsonFrame struct {
	node *yaml.Node
	// keys maps each member name to the offset of its opening quote.
	keys map[string]int64
	// pending holds the key node of an object member whose value is not read yet.
	pending *yaml.Node
}

// parseJSON builds an ordered node tree from the go-json token stream.
// Objects keep member order and duplicate member names are rejected.
func parseJSON(id DocID, data []byte) (*yaml.Node, error) {
	dec := j.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var (
		stack []*jsonFrame
		root  *yaml.Node
	)
	fail := func(err error, msg string) *diag.Error {
		e := &diag.Error{Code: diag.CodeDocumentParse, Doc: string(id), Message: msg, Err: err}
		var se *j.SyntaxError
		if errors.As(err, &se) {
			e.Line, e.Col = lineCol(data, se.Offset)
		}
		return e
	}
	// attach places a completed value into the innermost open container.
	attach := func(n *yaml.Node) error {
		if len(stack) == 0 {
			if root != nil {
				return fail(nil, "multiple top-level values")
			}
			root = n
			return nil
		}
		top := stack[len(stack)-1]
		if top.node.Kind == yaml.SequenceNode {
			top.node.Content = append(top.node.Content, n)
			return nil
		}
		if top.pending == nil {
			// A string token in key position.
			if n.Kind != yaml.ScalarNode || n.Tag != "!!str" {
				return fail(nil, "object key must be a string")
			}
			at := keyStart(data, dec.InputOffset())
			if first, dup := top.keys[n.Value]; dup {
				de := &DuplicateKeyError{Key: n.Value}
				de.FirstLine, de.FirstCol = lineCol(data, first)
				de.Line, de.Col = lineCol(data, at)
				e := fail(de, "")
				e.Line, e.Col = de.Line, de.Col
				return e
			}
			top.keys[n.Value] = at
			top.pending = n
			return nil
		}
		top.node.Content = append(top.node.Content, top.pending, n)
		top.pending = nil
		return nil
	}

	for {
		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fail(err, "")
		}
		switch v := tok.(type) {
		case j.Delim:
			switch v {
			case '{':
				stack = append(stack, &jsonFrame{node: &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}, keys: map[string]int64{}})
			case '[':
				stack = append(stack, &jsonFrame{node: &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}})
			case '}', ']':
				if len(stack) == 0 {
					return nil, fail(nil, "unbalanced "+string(v))
				}
				done := stack[len(stack)-1].node
				stack = stack[:len(stack)-1]
				if err := attach(done); err != nil {
					return nil, err
				}
			}
		case string:
			if err := attach(&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v}); err != nil {
				return nil, err
			}
		case bool:
			if err := attach(&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(v)}); err != nil {
				return nil, err
			}
		case j.Number:
			if err := attach(numberNode(string(v))); err != nil {
				return nil, err
			}
		case float64:
			if err := attach(numberNode(strconv.FormatFloat(v, 'g', -1, 64))); err != nil {
				return nil, err
			}
		case nil:
			if err := attach(&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}); err != nil {
				return nil, err
			}
		}
	}
	if len(stack) != 0 {
		return nil, fail(nil, "unexpected end of input")
	}
	if root == nil {
		return nil, fail(nil, "empty document")
	}
	return root, nil
}

func numberNode(lit string) *yaml.Node {
	tag := "!!int"
	if strings.ContainsAny(lit, ".eE") {
		tag = "!!float"
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: lit}
}

// keyStart returns the offset of the opening quote of the string token
// that ends at end.
func keyStart(data []byte, end int64) int64 {
	if end > int64(len(data)) {
		end = int64(len(data))
	}
	for i := end - 2; i >= 0; i-- {
		if data[i] != '"' {
			continue
		}
		escapes := 0
		for k := i - 1; k >= 0 && data[k] == '\\'; k-- {
			escapes++
		}
		if escapes%2 == 0 {
			return i
		}
	}
	return 0
}

// lineCol converts a byte offset into a 1-based line and column.
func lineCol(data []byte, off int64) (int, int) {
	if off < 0 {
		return 0, 0
	}
	if off > int64(len(data)) {
		off = int64(len(data))
	}
	prefix := data[:off]
	line := bytes.Count(prefix, []byte{'\n'}) + 1
	col := int(off) - bytes.LastIndexByte(prefix, '\n')
	return line, col
}
