package loan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandRulesOnce(t *testing.T) {
	t.Run("literal index anchor", func(t *testing.T) {
		table := ExpandRules([]PrepaymentRule{
			{Kind: RuleOnce, At: Anchor{Index: 12}, Amount: 50000, Strategy: StrategyReduceTenure},
		}, 240, nil, 0)

		require.Len(t, table, 1)
		entry := table[12]
		assert.Equal(t, 50000.0, entry.Amount)
		assert.Equal(t, StrategyReduceTenure, entry.Strategy)
		assert.Equal(t, "Month 12", entry.Label)
	})

	t.Run("calendar anchor resolves against loan start", func(t *testing.T) {
		start := Month{Year: 2026, Mon: 1}
		at := Month{Year: 2026, Mon: 12}
		table := ExpandRules([]PrepaymentRule{
			{Kind: RuleOnce, At: Anchor{Month: &at}, Amount: 50000, Strategy: StrategyReduceTenure},
		}, 240, &start, 0)

		require.Len(t, table, 1)
		assert.Equal(t, "2026-12", table[12].Label)
	})

	t.Run("calendar anchor with deferment", func(t *testing.T) {
		start := Month{Year: 2026, Mon: 1}
		at := Month{Year: 2026, Mon: 12}
		table := ExpandRules([]PrepaymentRule{
			{Kind: RuleOnce, At: Anchor{Month: &at}, Amount: 50000, Strategy: StrategyReduceTenure},
		}, 240, &start, 3)

		require.Len(t, table, 1)
		_, ok := table[9]
		assert.True(t, ok)
	})

	t.Run("calendar anchor without loan start is skipped", func(t *testing.T) {
		at := Month{Year: 2026, Mon: 12}
		table := ExpandRules([]PrepaymentRule{
			{Kind: RuleOnce, At: Anchor{Month: &at}, Amount: 50000, Strategy: StrategyReduceTenure},
		}, 240, nil, 0)
		assert.Empty(t, table)
	})

	t.Run("anchor beyond horizon is skipped", func(t *testing.T) {
		table := ExpandRules([]PrepaymentRule{
			{Kind: RuleOnce, At: Anchor{Index: 900}, Amount: 50000, Strategy: StrategyReduceTenure},
		}, 240, nil, 0)
		assert.Empty(t, table)
	})

	t.Run("non-positive amount is ignored", func(t *testing.T) {
		table := ExpandRules([]PrepaymentRule{
			{Kind: RuleOnce, At: Anchor{Index: 12}, Amount: 0, Strategy: StrategyReduceTenure},
			{Kind: RuleOnce, At: Anchor{Index: 13}, Amount: -5, Strategy: StrategyReduceTenure},
		}, 240, nil, 0)
		assert.Empty(t, table)
	})
}

func TestExpandRulesMonthly(t *testing.T) {
	t.Run("defaults span the whole horizon", func(t *testing.T) {
		table := ExpandRules([]PrepaymentRule{
			{Kind: RuleMonthly, Amount: 1000, Strategy: StrategyReduceInstallment},
		}, 24, nil, 0)

		assert.Len(t, table, 24)
		assert.Equal(t, "Every month", table[1].Label)
		assert.Equal(t, "Every month", table[24].Label)
	})

	t.Run("explicit index range", func(t *testing.T) {
		table := ExpandRules([]PrepaymentRule{
			{Kind: RuleMonthly, Start: &Anchor{Index: 6}, End: &Anchor{Index: 9}, Amount: 1000, Strategy: StrategyReduceTenure},
		}, 240, nil, 0)

		assert.Len(t, table, 4)
		for i := 6; i <= 9; i++ {
			assert.Contains(t, table, i)
		}
	})

	t.Run("end clamped to horizon", func(t *testing.T) {
		table := ExpandRules([]PrepaymentRule{
			{Kind: RuleMonthly, Start: &Anchor{Index: 10}, End: &Anchor{Index: 5000}, Amount: 1000, Strategy: StrategyReduceTenure},
		}, 12, nil, 0)

		assert.Len(t, table, 3)
	})

	t.Run("calendar range anchors without start date fall back to defaults", func(t *testing.T) {
		from := Month{Year: 2026, Mon: 6}
		table := ExpandRules([]PrepaymentRule{
			{Kind: RuleMonthly, Start: &Anchor{Month: &from}, Amount: 1000, Strategy: StrategyReduceTenure},
		}, 12, nil, 0)

		assert.Len(t, table, 12)
	})
}

func TestExpandRulesInterval(t *testing.T) {
	t.Run("every third month", func(t *testing.T) {
		table := ExpandRules([]PrepaymentRule{
			{Kind: RuleInterval, EveryNMonths: 3, Amount: 2500, Strategy: StrategyReduceTenure},
		}, 12, nil, 0)

		assert.Len(t, table, 4)
		for _, i := range []int{1, 4, 7, 10} {
			assert.Contains(t, table, i)
		}
		assert.Equal(t, "Every 3mo", table[4].Label)
	})

	t.Run("stride starts at the start anchor", func(t *testing.T) {
		table := ExpandRules([]PrepaymentRule{
			{Kind: RuleInterval, Start: &Anchor{Index: 5}, EveryNMonths: 6, Amount: 2500, Strategy: StrategyReduceTenure},
		}, 20, nil, 0)

		assert.Len(t, table, 3)
		for _, i := range []int{5, 11, 17} {
			assert.Contains(t, table, i)
		}
	})

	t.Run("interval below one is ignored", func(t *testing.T) {
		table := ExpandRules([]PrepaymentRule{
			{Kind: RuleInterval, EveryNMonths: 0, Amount: 2500, Strategy: StrategyReduceTenure},
		}, 12, nil, 0)
		assert.Empty(t, table)
	})
}

func TestExpandRulesLastWriteWins(t *testing.T) {
	// Later rules overwrite earlier ones on the same month, in list order.
	table := ExpandRules([]PrepaymentRule{
		{Kind: RuleOnce, At: Anchor{Index: 5}, Amount: 50000, Strategy: StrategyReduceTenure},
		{Kind: RuleMonthly, Start: &Anchor{Index: 4}, End: &Anchor{Index: 6}, Amount: 1000, Strategy: StrategyReduceInstallment},
	}, 240, nil, 0)

	assert.Equal(t, 1000.0, table[5].Amount)
	assert.Equal(t, StrategyReduceInstallment, table[5].Strategy)

	reversed := ExpandRules([]PrepaymentRule{
		{Kind: RuleMonthly, Start: &Anchor{Index: 4}, End: &Anchor{Index: 6}, Amount: 1000, Strategy: StrategyReduceInstallment},
		{Kind: RuleOnce, At: Anchor{Index: 5}, Amount: 50000, Strategy: StrategyReduceTenure},
	}, 240, nil, 0)

	assert.Equal(t, 50000.0, reversed[5].Amount)
	assert.Equal(t, StrategyReduceTenure, reversed[5].Strategy)
}
