package portfolioSandbox

import (
	"errors"
	"testing"

	"github.com/KotFed0t/portfolio_xray/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func base() []model.Component {
	return []model.Component{
		{Weight: 0.6, SourceURL: "https://www.ishares.com/it/prodotti/1/"},
		{Weight: 0.3, SourceURL: "https://www.ishares.com/it/prodotti/2/"},
	}
}

func TestSet(t *testing.T) {
	components := base()

	res, err := Set(components, []string{"2", "40%"})
	require.NoError(t, err)
	assert.InDelta(t, 0.4, res[1].Weight, 1e-9)
	assert.InDelta(t, 0.3, components[1].Weight, 1e-9, "input must not change")
}

func TestAddAndAddManual(t *testing.T) {
	res, err := Add(base(), []string{"0,05", "https://www.ishares.com/it/prodotti/3/"})
	require.NoError(t, err)
	require.Len(t, res, 3)
	assert.Equal(t, model.Component{Weight: 0.05, SourceURL: "https://www.ishares.com/it/prodotti/3/"}, res[2])

	res, err = AddManual(res, []string{"0.05", "Crypto", "Bitcoin", "Cold", "Wallet"})
	require.NoError(t, err)
	require.Len(t, res, 4)
	assert.Equal(t, model.Component{Weight: 0.05, Name: "Bitcoin Cold Wallet", AssetClass: "Crypto"}, res[3])
	assert.InDelta(t, 1.0, TotalWeight(res), 1e-9)
}

func TestRemove(t *testing.T) {
	components := base()

	res, err := Remove(components, []string{"1"})
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "https://www.ishares.com/it/prodotti/2/", res[0].SourceURL)
	assert.Len(t, components, 2)

	res, err = Remove(res, []string{"1"})
	require.NoError(t, err)
	assert.Empty(t, res)
}

func TestErrors(t *testing.T) {
	tests := []struct {
		name    string
		run     func() error
		wantErr error
	}{
		{name: "set without weight", run: func() error { _, err := Set(base(), []string{"1"}); return err }, wantErr: ErrBadArgs},
		{name: "set index zero", run: func() error { _, err := Set(base(), []string{"0", "0.1"}); return err }, wantErr: ErrBadIndex},
		{name: "set index too big", run: func() error { _, err := Set(base(), []string{"3", "0.1"}); return err }, wantErr: ErrBadIndex},
		{name: "negative weight", run: func() error { _, err := Set(base(), []string{"1", "-0.1"}); return err }, wantErr: ErrBadWeight},
		{name: "huge weight", run: func() error { _, err := Set(base(), []string{"1", "11"}); return err }, wantErr: ErrBadWeight},
		{name: "text weight", run: func() error { _, err := Add(base(), []string{"half", "https://x"}); return err }, wantErr: ErrBadWeight},
		{name: "add without url", run: func() error { _, err := Add(base(), []string{"0.1", "MSCI"}); return err }, wantErr: ErrBadArgs},
		{name: "manual without name", run: func() error { _, err := AddManual(base(), []string{"0.1", "Crypto"}); return err }, wantErr: ErrBadArgs},
		{name: "remove from empty", run: func() error { _, err := Remove(nil, []string{"1"}); return err }, wantErr: ErrBadIndex},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run()
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), err.Error())
		})
	}
}

func TestParseWeight(t *testing.T) {
	tests := []struct {
		arg  string
		want float64
	}{
		{arg: "0.25", want: 0.25},
		{arg: "0,25", want: 0.25},
		{arg: "25%", want: 0.25},
		{arg: " 1 ", want: 1},
		{arg: "0", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			got, err := ParseWeight(tt.arg)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}
