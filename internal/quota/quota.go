// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package quota meters platform-hosted model usage against a tenant's
// allotment. Deduction runs once per successful invocation, after the
// usage figure is final.
// Implements: prd007-quota R1-R4.
package quota

import (
	"context"
	"strings"

	"github.com/petar-djukic/llm-node/pkg/types"
)

// ProviderType distinguishes platform-hosted credentials from
// tenant-supplied ones. Only system-provider usage is metered.
type ProviderType string

const (
	ProviderSystem ProviderType = "system"
	ProviderCustom ProviderType = "custom"
)

// QuotaUnit selects how one invocation converts into quota units.
type QuotaUnit string

const (
	UnitTokens  QuotaUnit = "tokens"
	UnitCredits QuotaUnit = "credits"
	UnitTimes   QuotaUnit = "times"
)

// UnlimitedQuota marks a configuration that is never metered.
const UnlimitedQuota = -1

// QuotaConfiguration is one quota plan offered for a provider.
type QuotaConfiguration struct {
	QuotaType  string
	QuotaUnit  QuotaUnit
	QuotaLimit int64
}

// SystemConfiguration is the platform-hosted side of a provider's
// configuration: which quota plan is active and the plans on offer.
type SystemConfiguration struct {
	CurrentQuotaType    string
	QuotaConfigurations []QuotaConfiguration
}

// ProviderConfiguration is the read-only provider state the deduction
// consults.
type ProviderConfiguration struct {
	Provider     string
	UsingType    ProviderType
	SystemConfig SystemConfiguration
}

// activeQuota returns the configuration for the active quota type.
func (p ProviderConfiguration) activeQuota() (QuotaConfiguration, bool) {
	for _, qc := range p.SystemConfig.QuotaConfigurations {
		if qc.QuotaType == p.SystemConfig.CurrentQuotaType {
			return qc, true
		}
	}
	return QuotaConfiguration{}, false
}

// CreditTable maps per-call credit costs onto model families. Lookup
// is by longest matching model-name prefix; models with no entry cost
// DefaultCost.
type CreditTable struct {
	FamilyCosts map[string]int64 // model-name prefix -> credits per call
	DefaultCost int64
}

// Cost returns the per-call credit cost for a model.
func (t CreditTable) Cost(model string) int64 {
	cost := t.DefaultCost
	matched := -1
	for prefix, c := range t.FamilyCosts {
		if strings.HasPrefix(model, prefix) && len(prefix) > matched {
			cost = c
			matched = len(prefix)
		}
	}
	return cost
}

// Store persists per-tenant quota counters. Deduct must be a single
// conditional increment guarded by "current usage still under limit",
// so concurrent deductions cannot push recorded usage past the limit.
type Store interface {
	Deduct(ctx context.Context, tenantID, provider, quotaType string, amount, limit int64) error
	Used(ctx context.Context, tenantID, provider, quotaType string) (int64, error)
}

// Deduct decrements the tenant's remaining quota for one finished
// invocation. Custom-credential usage and unlimited plans are no-ops.
func Deduct(ctx context.Context, store Store, tenantID, model string, providerConfig ProviderConfiguration, usage types.LLMUsage, credits CreditTable) error {
	if providerConfig.UsingType != ProviderSystem {
		return nil
	}

	qc, ok := providerConfig.activeQuota()
	if !ok {
		return nil
	}
	if qc.QuotaLimit == UnlimitedQuota {
		return nil
	}

	var amount int64
	switch qc.QuotaUnit {
	case UnitTokens:
		amount = int64(usage.TotalTokens)
	case UnitCredits:
		amount = credits.Cost(model)
	default:
		amount = 1
	}
	if amount <= 0 {
		return nil
	}

	return store.Deduct(ctx, tenantID, providerConfig.Provider, qc.QuotaType, amount, qc.QuotaLimit)
}
