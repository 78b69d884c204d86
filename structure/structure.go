// Package structure builds the question trees that grading sessions are
// checked against and flattens them into dotted checkable paths.
package structure

import (
	"fmt"
	"iter"
	"strings"
)

type Node struct {
	Label    string `json:"label"`
	Children []Node `json:"children,omitempty"`
}

type Structure struct {
	Questions []Node `json:"questions"`
}

const alphabet = "abcdefghijklmnopqrstuvwxyz"

// SubpartLabel returns the label of the idx-th (zero based) subpart:
// a..z, then a1..z1, a2..z2 and so on.
func SubpartLabel(idx int) string {
	if idx < len(alphabet) {
		return string(alphabet[idx])
	}
	return fmt.Sprintf("%c%d", alphabet[idx%len(alphabet)], idx/len(alphabet))
}

func QuestionLabel(i int) string {
	return fmt.Sprintf("Q%d", i)
}

// FromCounts generates Q1..Qn, each with the same number of subparts when
// subparts > 0.
func FromCounts(questions int, subparts int) Structure {
	s := Structure{Questions: make([]Node, 0, max(questions, 0))}
	for i := 1; i <= questions; i++ {
		node := Node{Label: QuestionLabel(i)}
		if subparts > 0 {
			node.Children = make([]Node, subparts)
			for j := range subparts {
				node.Children[j] = Node{Label: SubpartLabel(j)}
			}
		}
		s.Questions = append(s.Questions, node)
	}
	return s
}

// Normalize trims labels and drops empty children lists.
func (s Structure) Normalize() (Structure, error) {
	if len(s.Questions) == 0 {
		return Structure{}, newErrEmptyStructure()
	}
	out := Structure{Questions: make([]Node, len(s.Questions))}
	for i, q := range s.Questions {
		n, err := normalizeNode(q, QuestionLabel(i+1))
		if err != nil {
			return Structure{}, err
		}
		out.Questions[i] = n
	}
	return out, nil
}

func normalizeNode(n Node, where string) (Node, error) {
	label := strings.TrimSpace(n.Label)
	if label == "" {
		return Node{}, newErrEmptyLabel(where)
	}
	out := Node{Label: label}
	for i, ch := range n.Children {
		c, err := normalizeNode(ch, fmt.Sprintf("%s child %d", label, i+1))
		if err != nil {
			return Node{}, err
		}
		out.Children = append(out.Children, c)
	}
	return out, nil
}

// Paths walks the tree depth first and yields one dotted path per leaf.
// The sequence can be ranged over any number of times.
func (s Structure) Paths() iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, q := range s.Questions {
			if !walk(q, "", yield) {
				return
			}
		}
	}
}

func walk(n Node, prefix string, yield func(string) bool) bool {
	current := n.Label
	if prefix != "" {
		current = prefix + "." + n.Label
	}
	if len(n.Children) == 0 {
		return yield(current)
	}
	for _, ch := range n.Children {
		if !walk(ch, current, yield) {
			return false
		}
	}
	return true
}

func (s Structure) CheckablePaths() []string {
	paths := []string{}
	for p := range s.Paths() {
		paths = append(paths, p)
	}
	return paths
}

func (s Structure) Count() int {
	n := 0
	for range s.Paths() {
		n++
	}
	return n
}
