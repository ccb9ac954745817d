package portfolioSandbox

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/KotFed0t/portfolio_xray/internal/model"
	"github.com/shopspring/decimal"
)

// maxWeight bounds a single component weight entered by hand.
const maxWeight = 10

var (
	ErrBadArgs   = errors.New("wrong command arguments")
	ErrBadIndex  = errors.New("no component with this number")
	ErrBadWeight = errors.New("weight must be a number between 0 and 10")
)

// Set changes the weight of a component: args are "<number> <weight>".
func Set(components []model.Component, args []string) ([]model.Component, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("%w: /set <number> <weight>", ErrBadArgs)
	}
	i, err := ParseIndex(args[0], len(components))
	if err != nil {
		return nil, err
	}
	weight, err := ParseWeight(args[1])
	if err != nil {
		return nil, err
	}

	res := clone(components)
	res[i].Weight = weight
	return res, nil
}

// Add appends a fund: args are "<weight> <url>".
func Add(components []model.Component, args []string) ([]model.Component, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("%w: /add <weight> <url>", ErrBadArgs)
	}
	weight, err := ParseWeight(args[0])
	if err != nil {
		return nil, err
	}
	if !strings.HasPrefix(args[1], "http://") && !strings.HasPrefix(args[1], "https://") {
		return nil, fmt.Errorf("%w: %q is not a url", ErrBadArgs, args[1])
	}

	return append(clone(components), model.Component{Weight: weight, SourceURL: args[1]}), nil
}

// AddManual appends a manual asset: args are "<weight> <asset class> <name...>".
func AddManual(components []model.Component, args []string) ([]model.Component, error) {
	if len(args) < 3 {
		return nil, fmt.Errorf("%w: /manual <weight> <asset class> <name>", ErrBadArgs)
	}
	weight, err := ParseWeight(args[0])
	if err != nil {
		return nil, err
	}

	return append(clone(components), model.Component{
		Weight:     weight,
		AssetClass: args[1],
		Name:       strings.Join(args[2:], " "),
	}), nil
}

// Remove drops a component: args are "<number>".
func Remove(components []model.Component, args []string) ([]model.Component, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("%w: /remove <number>", ErrBadArgs)
	}
	i, err := ParseIndex(args[0], len(components))
	if err != nil {
		return nil, err
	}

	res := make([]model.Component, 0, len(components)-1)
	res = append(res, components[:i]...)
	return append(res, components[i+1:]...), nil
}

func TotalWeight(components []model.Component) float64 {
	total := 0.0
	for _, c := range components {
		total += c.Weight
	}
	return total
}

// ParseIndex reads a 1-based component number.
func ParseIndex(arg string, count int) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil || n < 1 || n > count {
		return 0, fmt.Errorf("%w: %s", ErrBadIndex, arg)
	}
	return n - 1, nil
}

// ParseWeight reads a fraction ("0.25", "0,25") or a percentage ("25%").
func ParseWeight(arg string) (float64, error) {
	s := strings.ReplaceAll(strings.TrimSpace(arg), ",", ".")
	percent := strings.HasSuffix(s, "%")
	s = strings.TrimSuffix(s, "%")

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrBadWeight, arg)
	}
	if percent {
		d = d.Div(decimal.NewFromInt(100))
	}

	weight := d.InexactFloat64()
	if math.IsNaN(weight) || weight < 0 || weight > maxWeight {
		return 0, fmt.Errorf("%w: %s", ErrBadWeight, arg)
	}
	return weight, nil
}

func clone(components []model.Component) []model.Component {
	return append([]model.Component(nil), components...)
}
