package fixture

import (
	"fmt"
	"math/big"
	"sort"

	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
)

// parseHCL decodes the top-level attributes of an HCL document into a map.
// Blocks are not supported.
func parseHCL(data []byte, name string) (any, error) {
	file, diags := hclparse.NewParser().ParseHCL(data, name)
	if diags.HasErrors() {
		return nil, fmt.Errorf("invalid HCL: %s", diags.Error())
	}
	attrs, diags := file.Body.JustAttributes()
	if diags.HasErrors() {
		return nil, fmt.Errorf("invalid HCL: %s", diags.Error())
	}

	names := make([]string, 0, len(attrs))
	for n := range attrs {
		names = append(names, n)
	}
	sort.Strings(names)

	out := make(map[string]any, len(attrs))
	for _, n := range names {
		val, diags := attrs[n].Expr.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("attribute %q: %s", n, diags.Error())
		}
		v, err := ctyToGo(val)
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", n, err)
		}
		out[n] = v
	}
	return out, nil
}

// ctyToGo converts a cty value into the plain values the other formats decode
// to. Integral numbers become int64.
func ctyToGo(val cty.Value) (any, error) {
	if !val.IsKnown() {
		return nil, fmt.Errorf("value is not known")
	}
	if val.IsNull() {
		return nil, nil
	}

	ty := val.Type()
	switch {
	case ty == cty.String:
		return val.AsString(), nil
	case ty == cty.Number:
		bf := val.AsBigFloat()
		if bf.IsInt() {
			if i, acc := bf.Int64(); acc == big.Exact {
				return i, nil
			}
		}
		f, _ := bf.Float64()
		return f, nil
	case ty == cty.Bool:
		return val.True(), nil
	case ty.IsListType() || ty.IsSetType() || ty.IsTupleType():
		out := make([]any, 0)
		it := val.ElementIterator()
		for it.Next() {
			_, e := it.Element()
			v, err := ctyToGo(e)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case ty.IsMapType() || ty.IsObjectType():
		out := make(map[string]any)
		it := val.ElementIterator()
		for it.Next() {
			k, e := it.Element()
			v, err := ctyToGo(e)
			if err != nil {
				return nil, err
			}
			out[k.AsString()] = v
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported HCL type %s", ty.FriendlyName())
}
