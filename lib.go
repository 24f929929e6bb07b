package hive

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"math"
	"math/big"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/benbjohnson/immutable"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/xiam/hive/diag"
)

func registerLib(r *Registry) {
	registerStrings(r)
	registerLists(r)
	registerMaps(r)
	registerTypes(r)
	registerIO(r)
}

func formatJoin(args []*Value, sep string) string {
	parts := make([]string, len(args))
	for i := range args {
		parts[i] = Format(args[i])
	}
	return strings.Join(parts, sep)
}

// pyIndex resolves a possibly negative slice bound against length n.
func pyIndex(i *big.Int, n int) int {
	if !i.IsInt64() {
		if i.Sign() < 0 {
			return 0
		}
		return n
	}
	k := i.Int64()
	if k < 0 {
		k += int64(n)
		if k < 0 {
			k = 0
		}
	}
	if k > int64(n) {
		k = int64(n)
	}
	return int(k)
}

func (c *Call) sliceBounds(args []*Value, n int) (int, int, error) {
	if err := c.expectInt(args[0]); err != nil {
		return 0, 0, err
	}
	start, end := pyIndex(args[0].Int(), n), n
	if len(args) > 1 && args[1].Type != ValueTypeNull {
		if err := c.expectInt(args[1]); err != nil {
			return 0, 0, err
		}
		end = pyIndex(args[1].Int(), n)
	}
	if end < start {
		end = start
	}
	return start, end, nil
}

// indexArg returns i as an int when 0 <= i < n.
func indexArg(i *big.Int, n int) (int, bool) {
	if !i.IsInt64() || i.Sign() < 0 || i.Int64() >= int64(n) {
		return 0, false
	}
	return int(i.Int64()), true
}

func registerStrings(r *Registry) {
	r.Register("cat", 0, Variadic, func(c *Call, args []*Value) (*Value, error) {
		lists := len(args) > 0
		for _, arg := range args {
			if arg.Type != ValueTypeList {
				lists = false
				break
			}
		}
		if !lists {
			return NewStringValue(formatJoin(args, "")), nil
		}
		out := args[0].List()
		for _, arg := range args[1:] {
			itr := arg.List().Iterator()
			for !itr.Done() {
				_, item := itr.Next()
				out = out.Append(item)
			}
		}
		return newListFrom(out), nil
	})
	r.Register("str", 0, Variadic, func(c *Call, args []*Value) (*Value, error) {
		return NewStringValue(formatJoin(args, "")), nil
	})
	r.Register("len", 1, 1, func(c *Call, args []*Value) (*Value, error) {
		v := args[0]
		if err := c.expect(v, "a string, list or map", ValueTypeString, ValueTypeList, ValueTypeMap); err != nil {
			return nil, err
		}
		if v.Type == ValueTypeString {
			return NewInt64Value(int64(len([]rune(v.Str())))), nil
		}
		return NewInt64Value(int64(v.Len())), nil
	})
	r.Register("upr", 1, 1, func(c *Call, args []*Value) (*Value, error) {
		if err := c.expectString(args[0]); err != nil {
			return nil, err
		}
		return NewStringValue(cases.Upper(language.Und).String(args[0].Str())), nil
	})
	r.Register("lwr", 1, 1, func(c *Call, args []*Value) (*Value, error) {
		if err := c.expectString(args[0]); err != nil {
			return nil, err
		}
		return NewStringValue(cases.Lower(language.Und).String(args[0].Str())), nil
	})
	r.Register("spl", 1, 2, func(c *Call, args []*Value) (*Value, error) {
		if err := c.expectString(args[0]); err != nil {
			return nil, err
		}
		var parts []string
		if len(args) == 1 || args[1].Type == ValueTypeNull {
			parts = strings.Fields(args[0].Str())
		} else {
			if err := c.expectString(args[1]); err != nil {
				return nil, err
			}
			if args[1].Str() == "" {
				return nil, c.Errorf(diag.Runtime, "spl: empty separator")
			}
			parts = strings.Split(args[0].Str(), args[1].Str())
		}
		items := make([]*Value, len(parts))
		for i := range parts {
			items[i] = NewStringValue(parts[i])
		}
		return NewListValue(items...), nil
	})
	r.Register("fmt", 1, Variadic, func(c *Call, args []*Value) (*Value, error) {
		if err := c.expectString(args[0]); err != nil {
			return nil, err
		}
		tmpl, rest := args[0].Str(), args[1:]
		var b strings.Builder
		for len(rest) > 0 {
			i := strings.Index(tmpl, "{}")
			if i < 0 {
				break
			}
			b.WriteString(tmpl[:i])
			b.WriteString(Format(rest[0]))
			tmpl, rest = tmpl[i+2:], rest[1:]
		}
		b.WriteString(tmpl)
		return NewStringValue(b.String()), nil
	})
	r.Register("slc", 2, 3, func(c *Call, args []*Value) (*Value, error) {
		v := args[0]
		if err := c.expect(v, "a string or list", ValueTypeString, ValueTypeList); err != nil {
			return nil, err
		}
		if v.Type == ValueTypeString {
			runes := []rune(v.Str())
			start, end, err := c.sliceBounds(args[1:], len(runes))
			if err != nil {
				return nil, err
			}
			return NewStringValue(string(runes[start:end])), nil
		}
		start, end, err := c.sliceBounds(args[1:], v.Len())
		if err != nil {
			return nil, err
		}
		return newListFrom(v.List().Slice(start, end)), nil
	})
	r.Register("idx", 2, 2, func(c *Call, args []*Value) (*Value, error) {
		v := args[0]
		if err := c.expect(v, "a string or list", ValueTypeString, ValueTypeList); err != nil {
			return nil, err
		}
		if v.Type == ValueTypeString {
			if err := c.expectString(args[1]); err != nil {
				return nil, err
			}
			i := strings.Index(v.Str(), args[1].Str())
			if i < 0 {
				return NewInt64Value(-1), nil
			}
			return NewInt64Value(int64(len([]rune(v.Str()[:i])))), nil
		}
		l := v.List()
		for i := 0; i < l.Len(); i++ {
			if Equal(l.Get(i), args[1]) {
				return NewInt64Value(int64(i)), nil
			}
		}
		return NewInt64Value(-1), nil
	})
}

func (c *Call) mapList(fn *Value, l *Value, each func(i int, in, out *Value) bool) error {
	items := l.List()
	for i := 0; i < items.Len(); i++ {
		out, err := c.Apply(fn, items.Get(i))
		if err != nil {
			return err
		}
		if !each(i, items.Get(i), out) {
			break
		}
	}
	return nil
}

func (c *Call) fnAndList(args []*Value) error {
	if err := c.expectFunction(args[0]); err != nil {
		return err
	}
	return c.expectList(args[1])
}

type sortKey struct {
	item *Value
	key  *Value
}

func (c *Call) sortValues(keys []sortKey) error {
	if len(keys) == 0 {
		return nil
	}
	numbers := keys[0].key.IsNumber()
	for _, k := range keys {
		switch {
		case numbers && k.key.IsNumber():
		case !numbers && k.key.Type == ValueTypeString:
		default:
			return c.Errorf(diag.Type, "srt: cannot order %s values", typeName(k.key))
		}
	}
	sort.SliceStable(keys, func(i, j int) bool {
		a, b := keys[i].key, keys[j].key
		if numbers {
			return ordered("<", a, b)
		}
		return a.Str() < b.Str()
	})
	return nil
}

func registerLists(r *Registry) {
	r.Register("list", 0, Variadic, func(c *Call, args []*Value) (*Value, error) {
		return NewListValue(args...), nil
	})
	r.Register("hd", 1, 1, func(c *Call, args []*Value) (*Value, error) {
		v := args[0]
		if err := c.expect(v, "a string or list", ValueTypeString, ValueTypeList); err != nil {
			return nil, err
		}
		if v.Type == ValueTypeString {
			for _, ch := range v.Str() {
				return NewStringValue(string(ch)), nil
			}
			return Null, nil
		}
		if v.Len() == 0 {
			return Null, nil
		}
		return v.List().Get(0), nil
	})
	r.Register("tl", 1, 1, func(c *Call, args []*Value) (*Value, error) {
		v := args[0]
		if err := c.expect(v, "a string or list", ValueTypeString, ValueTypeList); err != nil {
			return nil, err
		}
		if v.Type == ValueTypeString {
			runes := []rune(v.Str())
			if len(runes) == 0 {
				return NewStringValue(""), nil
			}
			return NewStringValue(string(runes[1:])), nil
		}
		if v.Len() == 0 {
			return emptyList, nil
		}
		return newListFrom(v.List().Slice(1, v.Len())), nil
	})
	r.Register("nth", 2, 2, func(c *Call, args []*Value) (*Value, error) {
		v := args[0]
		if err := c.expect(v, "a string or list", ValueTypeString, ValueTypeList); err != nil {
			return nil, err
		}
		if err := c.expectInt(args[1]); err != nil {
			return nil, err
		}
		if v.Type == ValueTypeString {
			runes := []rune(v.Str())
			i, ok := indexArg(args[1].Int(), len(runes))
			if !ok {
				return Null, nil
			}
			return NewStringValue(string(runes[i])), nil
		}
		i, ok := indexArg(args[1].Int(), v.Len())
		if !ok {
			return Null, nil
		}
		return v.List().Get(i), nil
	})
	r.Register("push", 2, 2, func(c *Call, args []*Value) (*Value, error) {
		if err := c.expectList(args[0]); err != nil {
			return nil, err
		}
		return newListFrom(args[0].List().Append(args[1])), nil
	})
	r.Register("rev", 1, 1, func(c *Call, args []*Value) (*Value, error) {
		if err := c.expectList(args[0]); err != nil {
			return nil, err
		}
		items := args[0].Items()
		for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
			items[i], items[j] = items[j], items[i]
		}
		return NewListValue(items...), nil
	})
	r.Register("map", 2, 2, func(c *Call, args []*Value) (*Value, error) {
		if err := c.fnAndList(args); err != nil {
			return nil, err
		}
		b := immutable.NewListBuilder[*Value]()
		err := c.mapList(args[0], args[1], func(_ int, _, out *Value) bool {
			b.Append(out)
			return true
		})
		if err != nil {
			return nil, err
		}
		return newListFrom(b.List()), nil
	})
	r.Register("flt", 2, 2, func(c *Call, args []*Value) (*Value, error) {
		if err := c.fnAndList(args); err != nil {
			return nil, err
		}
		b := immutable.NewListBuilder[*Value]()
		err := c.mapList(args[0], args[1], func(_ int, in, out *Value) bool {
			if Truthy(out) {
				b.Append(in)
			}
			return true
		})
		if err != nil {
			return nil, err
		}
		return newListFrom(b.List()), nil
	})
	r.Register("red", 3, 3, func(c *Call, args []*Value) (*Value, error) {
		if err := c.expectFunction(args[0]); err != nil {
			return nil, err
		}
		if err := c.expectList(args[2]); err != nil {
			return nil, err
		}
		acc := args[1]
		l := args[2].List()
		for i := 0; i < l.Len(); i++ {
			var err error
			if acc, err = c.Apply(args[0], acc, l.Get(i)); err != nil {
				return nil, err
			}
		}
		return acc, nil
	})
	r.Register("any", 2, 2, func(c *Call, args []*Value) (*Value, error) {
		if err := c.fnAndList(args); err != nil {
			return nil, err
		}
		found := false
		err := c.mapList(args[0], args[1], func(_ int, _, out *Value) bool {
			found = Truthy(out)
			return !found
		})
		if err != nil {
			return nil, err
		}
		return NewBoolValue(found), nil
	})
	r.Register("all", 2, 2, func(c *Call, args []*Value) (*Value, error) {
		if err := c.fnAndList(args); err != nil {
			return nil, err
		}
		all := true
		err := c.mapList(args[0], args[1], func(_ int, _, out *Value) bool {
			all = Truthy(out)
			return all
		})
		if err != nil {
			return nil, err
		}
		return NewBoolValue(all), nil
	})
	r.Register("range", 1, 3, func(c *Call, args []*Value) (*Value, error) {
		for _, arg := range args {
			if err := c.expectInt(arg); err != nil {
				return nil, err
			}
		}
		start, stop, step := big.NewInt(0), args[0].Int(), big.NewInt(1)
		if len(args) > 1 {
			start, stop = args[0].Int(), args[1].Int()
		}
		if len(args) > 2 {
			step = args[2].Int()
		}
		if step.Sign() == 0 {
			return nil, c.Errorf(diag.Runtime, "range: step must not be zero")
		}
		b := immutable.NewListBuilder[*Value]()
		for i := new(big.Int).Set(start); ; {
			if step.Sign() > 0 && i.Cmp(stop) >= 0 || step.Sign() < 0 && i.Cmp(stop) <= 0 {
				break
			}
			b.Append(NewIntValue(new(big.Int).Set(i)))
			i.Add(i, step)
		}
		return newListFrom(b.List()), nil
	})
	r.Register("srt", 1, 2, func(c *Call, args []*Value) (*Value, error) {
		if err := c.expectList(args[0]); err != nil {
			return nil, err
		}
		items := args[0].Items()
		keys := make([]sortKey, len(items))
		for i, item := range items {
			keys[i] = sortKey{item: item, key: item}
		}
		if len(args) > 1 && args[1].Type != ValueTypeNull {
			if err := c.expectFunction(args[1]); err != nil {
				return nil, err
			}
			for i := range keys {
				key, err := c.Apply(args[1], keys[i].item)
				if err != nil {
					return nil, err
				}
				keys[i].key = key
			}
		}
		if err := c.sortValues(keys); err != nil {
			return nil, err
		}
		for i := range keys {
			items[i] = keys[i].item
		}
		return NewListValue(items...), nil
	})
	r.Register("zip", 0, Variadic, func(c *Call, args []*Value) (*Value, error) {
		if len(args) == 0 {
			return emptyList, nil
		}
		n := -1
		for _, arg := range args {
			if err := c.expectList(arg); err != nil {
				return nil, err
			}
			if n < 0 || arg.Len() < n {
				n = arg.Len()
			}
		}
		rows := make([]*Value, n)
		for i := 0; i < n; i++ {
			row := make([]*Value, len(args))
			for j := range args {
				row[j] = args[j].List().Get(i)
			}
			rows[i] = NewListValue(row...)
		}
		return NewListValue(rows...), nil
	})
	r.Register("flat", 1, 1, func(c *Call, args []*Value) (*Value, error) {
		if err := c.expectList(args[0]); err != nil {
			return nil, err
		}
		b := immutable.NewListBuilder[*Value]()
		for _, item := range args[0].Items() {
			if item.Type != ValueTypeList {
				b.Append(item)
				continue
			}
			for _, inner := range item.Items() {
				b.Append(inner)
			}
		}
		return newListFrom(b.List()), nil
	})
	r.Register("uniq", 1, 1, func(c *Call, args []*Value) (*Value, error) {
		if err := c.expectList(args[0]); err != nil {
			return nil, err
		}
		seen := []*Value{}
	next:
		for _, item := range args[0].Items() {
			for _, s := range seen {
				if Equal(s, item) {
					continue next
				}
			}
			seen = append(seen, item)
		}
		return NewListValue(seen...), nil
	})
}

func (c *Call) mapAndKey(args []*Value) error {
	if err := c.expectMap(args[0]); err != nil {
		return err
	}
	return c.expectKeyword(args[1])
}

func registerMaps(r *Registry) {
	r.Register("get", 2, 3, func(c *Call, args []*Value) (*Value, error) {
		if err := c.mapAndKey(args); err != nil {
			return nil, err
		}
		if v, ok := args[0].Map().Get(args[1].Str()); ok {
			return v, nil
		}
		if len(args) > 2 {
			return args[2], nil
		}
		return Null, nil
	})
	r.Register("put", 3, 3, func(c *Call, args []*Value) (*Value, error) {
		if err := c.mapAndKey(args); err != nil {
			return nil, err
		}
		return NewMapValue(args[0].Map().Set(args[1].Str(), args[2])), nil
	})
	r.Register("del", 2, 2, func(c *Call, args []*Value) (*Value, error) {
		if err := c.mapAndKey(args); err != nil {
			return nil, err
		}
		return NewMapValue(args[0].Map().Delete(args[1].Str())), nil
	})
	r.Register("has", 2, 2, func(c *Call, args []*Value) (*Value, error) {
		if err := c.mapAndKey(args); err != nil {
			return nil, err
		}
		return NewBoolValue(args[0].Map().Has(args[1].Str())), nil
	})
	r.Register("keys", 1, 1, func(c *Call, args []*Value) (*Value, error) {
		if err := c.expectMap(args[0]); err != nil {
			return nil, err
		}
		keys := args[0].Map().Keys()
		items := make([]*Value, len(keys))
		for i := range keys {
			items[i] = NewKeywordValue(keys[i])
		}
		return NewListValue(items...), nil
	})
	r.Register("vals", 1, 1, func(c *Call, args []*Value) (*Value, error) {
		if err := c.expectMap(args[0]); err != nil {
			return nil, err
		}
		m := args[0].Map()
		items := []*Value{}
		for _, k := range m.Keys() {
			v, _ := m.Get(k)
			items = append(items, v)
		}
		return NewListValue(items...), nil
	})
	r.Register("mrg", 1, Variadic, func(c *Call, args []*Value) (*Value, error) {
		for _, arg := range args {
			if err := c.expectMap(arg); err != nil {
				return nil, err
			}
		}
		out := args[0].Map()
		for _, arg := range args[1:] {
			out = out.Merge(arg.Map())
		}
		return NewMapValue(out), nil
	})
}

func typePredicate(types ...ValueType) BuiltinFunc {
	return func(c *Call, args []*Value) (*Value, error) {
		for _, t := range types {
			if args[0].Type == t {
				return True, nil
			}
		}
		return False, nil
	}
}

func parseIntString(s string) (*big.Int, bool) {
	return new(big.Int).SetString(strings.TrimSpace(s), 10)
}

func registerTypes(r *Registry) {
	r.Register("type", 1, 1, func(c *Call, args []*Value) (*Value, error) {
		return NewKeywordValue(args[0].Type.String()), nil
	})
	r.Register("int?", 1, 1, typePredicate(ValueTypeInt))
	r.Register("float?", 1, 1, typePredicate(ValueTypeFloat))
	r.Register("str?", 1, 1, typePredicate(ValueTypeString))
	r.Register("bool?", 1, 1, typePredicate(ValueTypeBool))
	r.Register("null?", 1, 1, typePredicate(ValueTypeNull))
	r.Register("list?", 1, 1, typePredicate(ValueTypeList))
	r.Register("map?", 1, 1, typePredicate(ValueTypeMap))
	r.Register("kw?", 1, 1, typePredicate(ValueTypeKeyword))
	r.Register("fn?", 1, 1, typePredicate(ValueTypeFunction, ValueTypeBuiltin))

	r.Register("int", 1, 1, func(c *Call, args []*Value) (*Value, error) {
		v := args[0]
		switch v.Type {
		case ValueTypeInt:
			return v, nil
		case ValueTypeBool:
			if v.Bool() {
				return NewInt64Value(1), nil
			}
			return NewInt64Value(0), nil
		case ValueTypeFloat:
			f := v.Float64()
			if math.IsNaN(f) || math.IsInf(f, 0) {
				return nil, c.Errorf(diag.Runtime, "int: cannot convert %s", FormatFloat(f))
			}
			i, _ := big.NewFloat(math.Trunc(f)).Int(nil)
			return NewIntValue(i), nil
		case ValueTypeString:
			i, ok := parseIntString(v.Str())
			if !ok {
				return nil, c.Errorf(diag.Runtime, "int: invalid literal %q", v.Str())
			}
			return NewIntValue(i), nil
		}
		return nil, c.Errorf(diag.Type, "int: cannot convert %s", typeName(v))
	})
	r.Register("float", 1, 1, func(c *Call, args []*Value) (*Value, error) {
		v := args[0]
		switch v.Type {
		case ValueTypeFloat:
			return v, nil
		case ValueTypeInt:
			return NewFloatValue(toFloat(v)), nil
		case ValueTypeBool:
			if v.Bool() {
				return NewFloatValue(1), nil
			}
			return NewFloatValue(0), nil
		case ValueTypeString:
			f, err := strconv.ParseFloat(strings.TrimSpace(v.Str()), 64)
			if err != nil && !errors.Is(err, strconv.ErrRange) {
				return nil, c.Errorf(diag.Runtime, "float: invalid literal %q", v.Str())
			}
			return NewFloatValue(f), nil
		}
		return nil, c.Errorf(diag.Type, "float: cannot convert %s", typeName(v))
	})
}

func registerIO(r *Registry) {
	r.Register("print", 0, Variadic, func(c *Call, args []*Value) (*Value, error) {
		if _, err := io.WriteString(c.Stdout(), formatJoin(args, " ")+"\n"); err != nil {
			return nil, c.Errorf(diag.Runtime, "print: %v", err)
		}
		return Null, nil
	})
	r.Register("print-err", 0, Variadic, func(c *Call, args []*Value) (*Value, error) {
		if _, err := io.WriteString(c.Stderr(), formatJoin(args, " ")+"\n"); err != nil {
			return nil, c.Errorf(diag.Runtime, "print-err: %v", err)
		}
		return Null, nil
	})
	r.Register("read-line", 0, 0, func(c *Call, args []*Value) (*Value, error) {
		line, err := c.Stdin().ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			if err == io.EOF {
				return Null, nil
			}
			return nil, c.Errorf(diag.Runtime, "read-line: %v", err)
		}
		line = strings.TrimSuffix(line, "\n")
		return NewStringValue(strings.TrimSuffix(line, "\r")), nil
	})
	r.Register("read-file", 1, 1, func(c *Call, args []*Value) (*Value, error) {
		if err := c.expectString(args[0]); err != nil {
			return nil, err
		}
		buf, err := os.ReadFile(args[0].Str())
		if err != nil {
			return nil, c.Errorf(diag.Runtime, "read-file: %v", err)
		}
		return NewStringValue(string(buf)), nil
	})
	r.Register("write-file", 2, 2, func(c *Call, args []*Value) (*Value, error) {
		if err := c.expectString(args[0]); err != nil {
			return nil, err
		}
		if err := os.WriteFile(args[0].Str(), []byte(Format(args[1])), 0o644); err != nil {
			return nil, c.Errorf(diag.Runtime, "write-file: %v", err)
		}
		return Null, nil
	})
	r.Register("hash", 1, 1, func(c *Call, args []*Value) (*Value, error) {
		sum := sha256.Sum256([]byte(Format(args[0])))
		return NewStringValue(hex.EncodeToString(sum[:])[:12]), nil
	})
	r.Register("time", 0, 0, func(c *Call, args []*Value) (*Value, error) {
		return NewFloatValue(float64(time.Now().UnixNano()) / 1e9), nil
	})
}
