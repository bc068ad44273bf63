package engine

import (
	"fmt"
	"slices"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/horologe/pkg/config"
	"github.com/chazu/horologe/pkg/geom"
	"github.com/chazu/horologe/pkg/graph"
	"github.com/chazu/horologe/pkg/timing"
	"github.com/chazu/horologe/pkg/train"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource transforms horologe Lisp source code before passing it
// to zygomys. It performs two transformations:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal)
//     This avoids the need to register keyword symbols as globals, which
//     would conflict with user-defined variables of the same name.
//
//  2. Kebab-case to underscore: going-train -> going_train
//     zygomys does not allow hyphens in identifiers (it interprets them
//     as the subtraction operator). This converts kebab-case identifiers
//     to underscore form outside of strings and comments.
//
// Both transformations respect string literal boundaries and line comments.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		// Skip double-quoted string literals.
		if b[i] == '"' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					result = append(result, b[i], b[i+1])
					i += 2
					continue
				}
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Skip backtick-quoted string literals.
		if b[i] == '`' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '`' {
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Convert ; line comments to // comments for zygomys.
		if b[i] == ';' {
			result = append(result, '/', '/')
			i++
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Transform :keyword to "__kw_keyword".
		if b[i] == ':' && i+1 < len(b) {
			// Preserve := (assignment operator).
			if b[i+1] == '=' {
				result = append(result, b[i], b[i+1])
				i += 2
				continue
			}
			if isLetter(b[i+1]) {
				j := i + 1
				for j < len(b) && isKWChar(b[j]) {
					j++
				}
				result = append(result, '"')
				result = append(result, kwPrefix...)
				result = append(result, b[i+1:j]...)
				result = append(result, '"')
				i = j
				continue
			}
		}
		// Transform kebab-case identifiers: alpha-alpha -> alpha_alpha.
		// Only when hyphen sits between identifier characters (not a minus operator).
		if b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isIdentStartChar(b[i+1]) {
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

func isIdentStartChar(c byte) bool {
	return isLetter(c)
}

// ---------------------------------------------------------------------------
// Node references
// ---------------------------------------------------------------------------

// sexpNodeRef wraps a graph.NodeID so it can be passed between builtins.
type sexpNodeRef struct {
	id   graph.NodeID
	kind graph.NodeKind
	name string // human-readable name for error messages
}

func (n *sexpNodeRef) SexpString(ps *zygo.PrintState) string {
	if n.name != "" {
		return fmt.Sprintf("(%s %q)", n.kind, n.name)
	}
	return fmt.Sprintf("(%s %s)", n.kind, n.id.Short())
}
func (n *sexpNodeRef) Type() *zygo.RegisteredType { return nil }

func refTo(n *graph.Node) *sexpNodeRef {
	return &sexpNodeRef{id: n.ID, kind: n.Kind, name: n.Name}
}

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	form       string
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
// Keywords are identified by the __kw_ prefix added during preprocessing.
func parseArgs(form string, args []zygo.Sexp) kwArgs {
	result := kwArgs{form: form, kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if ok {
			if i+1 < len(args) {
				result.kw[name] = args[i+1]
				i += 2
			} else {
				// Keyword at end with no value: treat as flag with nil.
				result.kw[name] = zygo.SexpNull
				i++
			}
		} else {
			result.positional = append(result.positional, args[i])
			i++
		}
	}
	return result
}

// only rejects keywords outside allowed.
func (pa kwArgs) only(allowed ...string) error {
	var unknown []string
	for k := range pa.kw {
		if !slices.Contains(allowed, k) {
			unknown = append(unknown, ":"+k)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	slices.Sort(unknown)
	return fmt.Errorf("%s: unknown keyword %s", pa.form, strings.Join(unknown, ", "))
}

func (pa kwArgs) floatArg(key string, dst *float64) error {
	v, ok := pa.kw[key]
	if !ok {
		return nil
	}
	f, err := toFloat64(v)
	if err != nil {
		return fmt.Errorf("%s: %s: %w", pa.form, key, err)
	}
	*dst = f
	return nil
}

func (pa kwArgs) intArg(key string, dst *int) error {
	v, ok := pa.kw[key]
	if !ok {
		return nil
	}
	n, err := toInt(v)
	if err != nil {
		return fmt.Errorf("%s: %s: %w", pa.form, key, err)
	}
	*dst = n
	return nil
}

func (pa kwArgs) boolArg(key string, dst *bool) error {
	v, ok := pa.kw[key]
	if !ok {
		return nil
	}
	b, err := toBool(v)
	if err != nil {
		return fmt.Errorf("%s: %s: %w", pa.form, key, err)
	}
	*dst = b
	return nil
}

func (pa kwArgs) strArg(key string, dst *string) error {
	v, ok := pa.kw[key]
	if !ok {
		return nil
	}
	s, err := toKeywordString(v)
	if err != nil {
		return fmt.Errorf("%s: %s: %w", pa.form, key, err)
	}
	*dst = s
	return nil
}

func (pa kwArgs) rangeArg(key string, dst *train.Range) error {
	v, ok := pa.kw[key]
	if !ok {
		return nil
	}
	r, err := toRange(v)
	if err != nil {
		return fmt.Errorf("%s: %s: %w", pa.form, key, err)
	}
	*dst = r
	return nil
}

// firstErr returns the first non-nil error.
func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toInt extracts a whole number. Floats with a fractional part are refused.
func toInt(s zygo.Sexp) (int, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return int(v.Val), nil
	case *zygo.SexpFloat:
		if v.Val == float64(int(v.Val)) {
			return int(v.Val), nil
		}
	}
	return 0, fmt.Errorf("expected whole number, got %T (%s)", s, s.SexpString(nil))
}

// toBool extracts a boolean. A bare keyword at the end of a form counts as
// true.
func toBool(s zygo.Sexp) (bool, error) {
	switch v := s.(type) {
	case *zygo.SexpBool:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return true, nil
		}
	}
	return false, fmt.Errorf("expected true or false, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString extracts a keyword name or plain string from a Sexp.
// Handles both preprocessed keywords (__kw_deadbeat) and plain strings.
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %T (%s)", s, s.SexpString(nil))
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], nil
	}
	return str.S, nil
}

// toRange reads a two element list (min max) as a half-open range.
func toRange(s zygo.Sexp) (train.Range, error) {
	items, err := sexpListToSlice(s)
	if err != nil {
		return train.Range{}, err
	}
	if len(items) != 2 {
		return train.Range{}, fmt.Errorf("expected (min max), got %d values", len(items))
	}
	lo, err := toInt(items[0])
	if err != nil {
		return train.Range{}, err
	}
	hi, err := toInt(items[1])
	if err != nil {
		return train.Range{}, err
	}
	return train.Range{Min: lo, Max: hi}, nil
}

// toNode resolves a node reference of the given kind.
func toNode(g *graph.MovementGraph, s zygo.Sexp, kind graph.NodeKind) (*graph.Node, error) {
	ref, ok := s.(*sexpNodeRef)
	if !ok {
		return nil, fmt.Errorf("expected %s reference, got %T (%s)", kind, s, s.SexpString(nil))
	}
	n := g.Get(ref.id)
	if n == nil {
		return nil, fmt.Errorf("%s %s does not exist", kind, ref.id.Short())
	}
	if n.Kind != kind {
		return nil, fmt.Errorf("expected %s reference, got %s", kind, n.Kind)
	}
	return n, nil
}

// sexpListToSlice converts a SexpPair (Lisp list) or SexpArray to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// builtin is the zygomys function signature.
type builtin = func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error)

// registerBuiltins installs all horologe DSL builtins into a zygomys
// environment. The builtins populate b's graph during evaluation.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, b *builder) {
	add := func(name string, fn builtin) {
		env.AddFunction(name, func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			out, err := fn(env, name, args)
			if err != nil {
				return zygo.SexpNull, b.fail(err)
			}
			return out, nil
		})
	}

	add("pendulum", b.pendulumForm)
	add("anchor", b.anchorForm)
	add("going_train", b.goingTrainForm)
	add("power_train", b.powerTrainForm)
	add("movement", b.movementForm)

	// -----------------------------------------------------------------------
	// (pendulum-length 2) and (pendulum-period 0.994)
	// -----------------------------------------------------------------------
	add("pendulum_length", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("pendulum-length requires a period")
		}
		p, err := toFloat64(args[0])
		if err != nil {
			return nil, fmt.Errorf("pendulum-length: %w", err)
		}
		return &zygo.SexpFloat{Val: timing.PendulumLength(p)}, nil
	})
	add("pendulum_period", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("pendulum-period requires a length")
		}
		l, err := toFloat64(args[0])
		if err != nil {
			return nil, fmt.Errorf("pendulum-period: %w", err)
		}
		return &zygo.SexpFloat{Val: timing.PendulumPeriod(l)}, nil
	})
}

// ---------------------------------------------------------------------------
// (pendulum :period 2) or (pendulum :length 0.994)
// ---------------------------------------------------------------------------

func (b *builder) pendulumForm(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	pa := parseArgs("pendulum", args)
	var pc config.PendulumConfig
	var label string
	if err := firstErr(
		pa.only("period", "length", "name"),
		pa.floatArg("period", &pc.Period),
		pa.floatArg("length", &pc.Length),
		pa.strArg("name", &label),
	); err != nil {
		return nil, err
	}
	period, err := pc.EffectivePeriod()
	if err != nil {
		return nil, fmt.Errorf("pendulum: %w", err)
	}
	n, err := b.addPendulum(label, period)
	if err != nil {
		return nil, fmt.Errorf("pendulum: %w", err)
	}
	return refTo(n), nil
}

// ---------------------------------------------------------------------------
// (anchor :teeth 30 :diameter 100 :lift 4 :drop 2 :lock 2)
//
// Angles are in degrees. :auto-lift picks the lift giving 45° pallets.
// ---------------------------------------------------------------------------

func (b *builder) anchorForm(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	pa := parseArgs("anchor", args)
	ec := config.Default().Escapement
	var label string
	var auto bool
	if err := firstErr(
		pa.only("family", "teeth", "diameter", "lift", "drop", "lock", "run", "auto-lift", "name"),
		pa.strArg("family", &ec.Family),
		pa.intArg("teeth", &ec.Teeth),
		pa.floatArg("diameter", &ec.Diameter),
		pa.floatArg("lift", &ec.Lift),
		pa.floatArg("drop", &ec.Drop),
		pa.floatArg("lock", &ec.Lock),
		pa.floatArg("run", &ec.Run),
		pa.boolArg("auto-lift", &auto),
		pa.strArg("name", &label),
	); err != nil {
		return nil, err
	}
	if auto {
		ec.Lift = 0
	}
	geo, err := ec.Geometry()
	if err != nil {
		return nil, fmt.Errorf("anchor: %w", err)
	}
	b.log.Debug("anchor built", "teeth", geo.Teeth(), "lift", geom.RadToDeg(geo.Lift()))
	return refTo(b.addEscapement(label, geo)), nil
}

// ---------------------------------------------------------------------------
// (going-train :stages 2 :escapement esc :pendulum p :minute-wheel-ratio 1
//              :pinions (list 10 20) :wheels (list 50 100))
// ---------------------------------------------------------------------------

func (b *builder) goingTrainForm(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	pa := parseArgs("going-train", args)
	cfg := config.Default()
	g := &cfg.Going
	var label string
	pick := 0
	if err := firstErr(
		pa.only("stages", "pinions", "wheels", "minute-wheel-ratio", "tolerance", "module",
			"module-reduction", "allow-integer", "favour-smallest", "seconds-hand",
			"penultimate-min-ratio", "escapement", "escapement-teeth", "pendulum",
			"pendulum-period", "pick", "name"),
		pa.intArg("stages", &g.Stages),
		pa.rangeArg("pinions", &g.Pinions),
		pa.rangeArg("wheels", &g.Wheels),
		pa.floatArg("minute-wheel-ratio", &g.MinuteWheelRatio),
		pa.floatArg("tolerance", &g.ErrorTolerance),
		pa.floatArg("module", &g.Module),
		pa.floatArg("module-reduction", &g.ModuleReduction),
		pa.boolArg("allow-integer", &g.AllowIntegerRatio),
		pa.boolArg("favour-smallest", &g.FavourSmallest),
		pa.boolArg("seconds-hand", &g.SecondsHand),
		pa.floatArg("penultimate-min-ratio", &g.PenultimateWheelMinRatio),
		pa.intArg("escapement-teeth", &cfg.Escapement.Teeth),
		pa.floatArg("pendulum-period", &cfg.Pendulum.Period),
		pa.intArg("pick", &pick),
		pa.strArg("name", &label),
	); err != nil {
		return nil, err
	}

	if v, ok := pa.kw["escapement"]; ok {
		n, err := toNode(b.g, v, graph.NodeEscapement)
		if err != nil {
			return nil, fmt.Errorf("going-train: escapement: %w", err)
		}
		cfg.Escapement.Teeth = n.Data.(graph.EscapementData).Teeth
	}
	if v, ok := pa.kw["pendulum"]; ok {
		n, err := toNode(b.g, v, graph.NodePendulum)
		if err != nil {
			return nil, fmt.Errorf("going-train: pendulum: %w", err)
		}
		cfg.Pendulum.Period = n.Data.(graph.PendulumData).Period
	}

	opts, err := cfg.GoingOptions()
	if err != nil {
		return nil, fmt.Errorf("going-train: %w", err)
	}
	n, err := b.solveGoing(label, opts, pick)
	if err != nil {
		return nil, fmt.Errorf("going-train: %w", err)
	}
	return refTo(n), nil
}

// ---------------------------------------------------------------------------
// (power-train :stages 1 :turns 10 :runtime-hours 30)
//
// :ratio gives the desired ratio directly instead of turns and runtime.
// ---------------------------------------------------------------------------

func (b *builder) powerTrainForm(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	pa := parseArgs("power-train", args)
	pc := config.Default().Power
	var label string
	var ratio float64
	pick := 0
	if err := firstErr(
		pa.only("stages", "pinions", "wheels", "turns", "runtime-hours", "minute-wheel-ratio",
			"ratio", "tolerance", "inaccurate", "prefer-large", "tooth-ratio", "module",
			"module-reduction", "pick", "name"),
		pa.intArg("stages", &pc.Stages),
		pa.rangeArg("pinions", &pc.Pinions),
		pa.rangeArg("wheels", &pc.Wheels),
		pa.floatArg("turns", &pc.Turns),
		pa.floatArg("runtime-hours", &pc.RuntimeHours),
		pa.floatArg("minute-wheel-ratio", &pc.MinuteWheelRatio),
		pa.floatArg("ratio", &ratio),
		pa.floatArg("tolerance", &pc.ErrorTolerance),
		pa.boolArg("inaccurate", &pc.Inaccurate),
		pa.boolArg("prefer-large", &pc.PreferLargeSecondWheel),
		pa.floatArg("tooth-ratio", &pc.ToothRatio),
		pa.floatArg("module", &pc.Module),
		pa.floatArg("module-reduction", &pc.ModuleReduction),
		pa.intArg("pick", &pick),
		pa.strArg("name", &label),
	); err != nil {
		return nil, err
	}

	opts, err := pc.Options()
	if err != nil {
		return nil, fmt.Errorf("power-train: %w", err)
	}
	if _, ok := pa.kw["ratio"]; ok {
		opts.DesiredRatio = ratio
	}
	n, err := b.solvePower(label, opts, pick)
	if err != nil {
		return nil, fmt.Errorf("power-train: %w", err)
	}
	return refTo(n), nil
}

// ---------------------------------------------------------------------------
// (movement "name" pendulum escapement going power :description "...")
// ---------------------------------------------------------------------------

func (b *builder) movementForm(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	pa := parseArgs("movement", args)
	var description string
	if err := firstErr(pa.only("description"), pa.strArg("description", &description)); err != nil {
		return nil, err
	}
	if len(pa.positional) < 1 {
		return nil, fmt.Errorf("movement requires a name argument")
	}
	mvName, err := toString(pa.positional[0])
	if err != nil {
		return nil, fmt.Errorf("movement: name: %w", err)
	}

	var children []graph.NodeID
	for i, arg := range pa.positional[1:] {
		ref, ok := arg.(*sexpNodeRef)
		if !ok {
			return nil, fmt.Errorf("movement: child %d: expected node reference, got %T (%s)",
				i+1, arg, arg.SexpString(nil))
		}
		children = append(children, ref.id)
	}

	n, err := b.addMovement(mvName, description, children)
	if err != nil {
		return nil, err
	}
	return refTo(n), nil
}
