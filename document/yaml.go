package document

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/reoring/refbundle/diag"
)

// DuplicateKeyError reports a duplicate key found in a mapping with both
// the first occurrence position and the duplicate occurrence position.
type DuplicateKeyError struct {
	Key       string
	FirstLine int
	FirstCol  int
	Line      int
	Col       int
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate key %q at %d:%d (first at %d:%d)", e.Key, e.Line, e.Col, e.FirstLine, e.FirstCol)
}

var yamlLineRE = regexp.MustCompile(`line (\d+)`)

// parseYAML decodes the first document of a YAML stream into a node tree.
// Unlike decoding into maps, yaml.Node keeps key order and positions, and
// duplicate keys are rejected with both positions.
func parseYAML(id DocID, data []byte) (*yaml.Node, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	var root yaml.Node
	if err := dec.Decode(&root); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &diag.Error{Code: diag.CodeDocumentParse, Doc: string(id), Message: "empty document"}
		}
		return nil, &diag.Error{Code: diag.CodeDocumentParse, Doc: string(id), Line: yamlErrorLine(err), Err: err}
	}
	content := &root
	if root.Kind == yaml.DocumentNode {
		if len(root.Content) == 0 {
			return nil, &diag.Error{Code: diag.CodeDocumentParse, Doc: string(id), Message: "empty document"}
		}
		content = root.Content[0]
	}
	if err := checkDuplicateKeys(content); err != nil {
		var de *DuplicateKeyError
		if errors.As(err, &de) {
			return nil, &diag.Error{Code: diag.CodeDocumentParse, Doc: string(id), Line: de.Line, Col: de.Col, Err: err}
		}
		return nil, &diag.Error{Code: diag.CodeDocumentParse, Doc: string(id), Err: err}
	}
	return content, nil
}

func checkDuplicateKeys(n *yaml.Node) error {
	switch n.Kind {
	case yaml.DocumentNode, yaml.SequenceNode:
		for _, c := range n.Content {
			if err := checkDuplicateKeys(c); err != nil {
				return err
			}
		}
	case yaml.MappingNode:
		first := make(map[string][2]int, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			k, v := n.Content[i], n.Content[i+1]
			if k.Kind == yaml.ScalarNode && k.Value != "<<" {
				if pos, dup := first[k.Value]; dup {
					return &DuplicateKeyError{Key: k.Value, FirstLine: pos[0], FirstCol: pos[1], Line: k.Line, Col: k.Column}
				}
				first[k.Value] = [2]int{k.Line, k.Column}
			}
			if err := checkDuplicateKeys(v); err != nil {
				return err
			}
		}
	}
	return nil
}

// yamlErrorLine extracts the line number yaml.v3 embeds in its messages.
func yamlErrorLine(err error) int {
	m := yamlLineRE.FindStringSubmatch(err.Error())
	if m == nil {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}
