package filter

import (
	"github.com/antchfx/xpath"
	"github.com/beevik/etree"

	"github.com/openncd/netconfd/internal/ncerr"
)

// CompileXPath handles the `type="xpath"` filter variant (spec.md §4.2):
// the select attribute is emitted verbatim as a single filter string. An
// empty select yields an empty reply. We validate the expression parses
// with antchfx/xpath before handing it to the (out of scope) schema
// engine's own XPath evaluator, so a malformed expression is rejected
// here as invalid-value instead of surfacing as a generic back-end
// failure later.
func CompileXPath(filterElem *etree.Element) ([]string, error) {
	sel := filterElem.SelectAttrValue("select", "")
	if sel == "" {
		return nil, nil
	}
	if _, err := xpath.Compile(sel); err != nil {
		return nil, ncerr.InvalidValue(ncerr.WithMessage("malformed xpath select expression: " + err.Error()))
	}
	return []string{sel}, nil
}

// IsXPathFilter reports whether elem is a `type="xpath"` filter.
func IsXPathFilter(elem *etree.Element) bool {
	return elem.SelectAttrValue("type", "subtree") == "xpath"
}
