// Copyright 2024
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package schema

import "github.com/penny-vault/pvfin/data"

func cashFlowConcepts() []*Concept {
	st := data.CashFlow
	return []*Concept{
		{
			Name:             "Net income",
			Statement:        st,
			TaxonomyPatterns: gaap("NetIncomeLoss", "ProfitLoss", "ProfitLossAttributableToOwnersOfParent"),
			HumanPatterns:    labels(`^net (income|earnings|loss)( \(loss\))?`),
			Sign:             Either,
			UnitType:         data.UnitCurrency,
		},
		{
			Name:      "Depreciation and amortization",
			Statement: st,
			TaxonomyPatterns: gaap("DepreciationDepletionAndAmortization", "DepreciationAndAmortization",
				"DepreciationAmortizationAndAccretionNet", "Depreciation", "AdjustmentsForDepreciationAndAmortisationExpense"),
			HumanPatterns: labels(`^depreciation(,)? (depletion )?and amortization`, `^depreciation$`),
			Sign:          Positive,
			Aliases:       []string{"D&A"},
			UnitType:      data.UnitCurrency,
		},
		{
			Name:             "Stock-based compensation",
			Statement:        st,
			TaxonomyPatterns: gaap("ShareBasedCompensation", "AllocatedShareBasedCompensationExpense", "AdjustmentsForSharebasedPayments"),
			HumanPatterns:    labels(`^(stock|share)-based compensation`),
			Sign:             Positive,
			UnitType:         data.UnitCurrency,
		},
		{
			Name:      "Operating cash flow",
			Statement: st,
			TaxonomyPatterns: gaap("NetCashProvidedByUsedInOperatingActivities",
				"NetCashProvidedByUsedInOperatingActivitiesContinuingOperations", "CashFlowsFromUsedInOperatingActivities"),
			HumanPatterns: labels(`operating activities$`, `^cash (flows? )?(generated )?from operat`),
			Sign:          Either,
			Aliases:       []string{"Cash from operations"},
			Subtotal:      true,
			UnitType:      data.UnitCurrency,
		},
		{
			Name:      "Capital expenditure",
			Statement: st,
			TaxonomyPatterns: gaap("PaymentsToAcquirePropertyPlantAndEquipment", "PaymentsToAcquireProductiveAssets",
				"PurchaseOfPropertyPlantAndEquipmentClassifiedAsInvestingActivities"),
			HumanPatterns: labels(`^(payments for |purchases? of )?(acquisition of )?property,? (plant )?and equipment`, `^capital expenditures?`),
			Sign:          Negative,
			Aliases:       []string{"Capex"},
			UnitType:      data.UnitCurrency,
		},
		{
			Name:      "Investing cash flow",
			Statement: st,
			TaxonomyPatterns: gaap("NetCashProvidedByUsedInInvestingActivities",
				"NetCashProvidedByUsedInInvestingActivitiesContinuingOperations", "CashFlowsFromUsedInInvestingActivities"),
			HumanPatterns: labels(`investing activities$`),
			Sign:          Either,
			Subtotal:      true,
			UnitType:      data.UnitCurrency,
		},
		{
			Name:             "Dividends paid",
			Statement:        st,
			TaxonomyPatterns: gaap("PaymentsOfDividends", "PaymentsOfDividendsCommonStock", "DividendsPaidClassifiedAsFinancingActivities"),
			HumanPatterns:    labels(`^(payments (for|of) )?dividends`, `^cash dividends paid`),
			Sign:             Negative,
			UnitType:         data.UnitCurrency,
		},
		{
			Name:             "Share repurchases",
			Statement:        st,
			TaxonomyPatterns: gaap("PaymentsForRepurchaseOfCommonStock", "PaymentsForRepurchaseOfEquity"),
			HumanPatterns:    labels(`^repurchases? of (common )?stock`, `^(payments for )?repurchases? of`),
			Sign:             Negative,
			Aliases:          []string{"Buybacks"},
			UnitType:         data.UnitCurrency,
		},
		{
			Name:      "Financing cash flow",
			Statement: st,
			TaxonomyPatterns: gaap("NetCashProvidedByUsedInFinancingActivities",
				"NetCashProvidedByUsedInFinancingActivitiesContinuingOperations", "CashFlowsFromUsedInFinancingActivities"),
			HumanPatterns: labels(`financing activities$`),
			Sign:          Either,
			Subtotal:      true,
			UnitType:      data.UnitCurrency,
		},
		{
			Name:      "Net change in cash",
			Statement: st,
			TaxonomyPatterns: gaap("CashCashEquivalentsRestrictedCashAndRestrictedCashEquivalentsPeriodIncreaseDecreaseIncludingExchangeRateEffect",
				"CashAndCashEquivalentsPeriodIncreaseDecrease", "IncreaseDecreaseInCashAndCashEquivalents"),
			HumanPatterns: labels(`^(net )?(increase|decrease|change)( \((decrease|increase)\))? in cash`),
			Sign:          Either,
			Subtotal:      true,
			UnitType:      data.UnitCurrency,
		},
	}
}
