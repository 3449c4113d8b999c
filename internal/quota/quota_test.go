// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package quota

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petar-djukic/llm-node/pkg/types"
)

func systemProvider(quotaType string, unit QuotaUnit, limit int64) ProviderConfiguration {
	return ProviderConfiguration{
		Provider:  "bedrock",
		UsingType: ProviderSystem,
		SystemConfig: SystemConfiguration{
			CurrentQuotaType: quotaType,
			QuotaConfigurations: []QuotaConfiguration{
				{QuotaType: quotaType, QuotaUnit: unit, QuotaLimit: limit},
			},
		},
	}
}

func usageWithTokens(total int) types.LLMUsage {
	usage := types.EmptyUsage()
	usage.TotalTokens = total
	return usage
}

func TestDeduct_TokensUnit(t *testing.T) {
	store := NewMemoryStore()
	cfg := systemProvider("trial", UnitTokens, 10_000)

	err := Deduct(context.Background(), store, "t1", "some-model", cfg, usageWithTokens(123), CreditTable{})
	require.NoError(t, err)

	used, err := store.Used(context.Background(), "t1", "bedrock", "trial")
	require.NoError(t, err)
	assert.Equal(t, int64(123), used)
}

func TestDeduct_CreditsUnitWithPremiumFamily(t *testing.T) {
	store := NewMemoryStore()
	cfg := systemProvider("paid", UnitCredits, 1000)
	credits := CreditTable{
		FamilyCosts: map[string]int64{"premium-": 20},
		DefaultCost: 1,
	}

	require.NoError(t, Deduct(context.Background(), store, "t1", "premium-xl", cfg, usageWithTokens(5), credits))
	require.NoError(t, Deduct(context.Background(), store, "t1", "basic-s", cfg, usageWithTokens(5), credits))

	used, _ := store.Used(context.Background(), "t1", "bedrock", "paid")
	assert.Equal(t, int64(21), used)
}

func TestDeduct_TimesUnitIsFlat(t *testing.T) {
	store := NewMemoryStore()
	cfg := systemProvider("trial", UnitTimes, 100)

	require.NoError(t, Deduct(context.Background(), store, "t1", "m", cfg, usageWithTokens(9999), CreditTable{}))

	used, _ := store.Used(context.Background(), "t1", "bedrock", "trial")
	assert.Equal(t, int64(1), used)
}

func TestDeduct_CustomProviderNotMetered(t *testing.T) {
	store := NewMemoryStore()
	cfg := systemProvider("trial", UnitTokens, 100)
	cfg.UsingType = ProviderCustom

	require.NoError(t, Deduct(context.Background(), store, "t1", "m", cfg, usageWithTokens(50), CreditTable{}))

	used, _ := store.Used(context.Background(), "t1", "bedrock", "trial")
	assert.Zero(t, used)
}

func TestDeduct_UnlimitedShortCircuits(t *testing.T) {
	store := NewMemoryStore()
	cfg := systemProvider("paid", UnitTokens, UnlimitedQuota)

	require.NoError(t, Deduct(context.Background(), store, "t1", "m", cfg, usageWithTokens(50), CreditTable{}))

	used, _ := store.Used(context.Background(), "t1", "bedrock", "paid")
	assert.Zero(t, used)
}

func TestDeduct_ZeroTokensIsNoOp(t *testing.T) {
	store := NewMemoryStore()
	cfg := systemProvider("trial", UnitTokens, 100)

	require.NoError(t, Deduct(context.Background(), store, "t1", "m", cfg, types.EmptyUsage(), CreditTable{}))

	used, _ := store.Used(context.Background(), "t1", "bedrock", "trial")
	assert.Zero(t, used)
}

func TestDeduct_InactiveQuotaTypeIsNoOp(t *testing.T) {
	store := NewMemoryStore()
	cfg := systemProvider("trial", UnitTokens, 100)
	cfg.SystemConfig.CurrentQuotaType = "other"

	require.NoError(t, Deduct(context.Background(), store, "t1", "m", cfg, usageWithTokens(10), CreditTable{}))

	used, _ := store.Used(context.Background(), "t1", "bedrock", "trial")
	assert.Zero(t, used)
}

func TestMemoryStore_MonotonicCapUnderConcurrency(t *testing.T) {
	store := NewMemoryStore()
	const limit = int64(100)
	cfg := systemProvider("trial", UnitTokens, limit)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				_ = Deduct(context.Background(), store, "t1", "m", cfg, usageWithTokens(7), CreditTable{})
			}
		}()
	}
	wg.Wait()

	used, err := store.Used(context.Background(), "t1", "bedrock", "trial")
	require.NoError(t, err)
	assert.LessOrEqual(t, used, limit)
	assert.Greater(t, used, int64(0))
}

func TestCreditTable_LongestPrefixWins(t *testing.T) {
	table := CreditTable{
		FamilyCosts: map[string]int64{"claude": 2, "claude-opus": 30},
		DefaultCost: 1,
	}

	assert.Equal(t, int64(30), table.Cost("claude-opus-4"))
	assert.Equal(t, int64(2), table.Cost("claude-haiku"))
	assert.Equal(t, int64(1), table.Cost("other"))
}
