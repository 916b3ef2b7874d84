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

func incomeConcepts() []*Concept {
	st := data.IncomeStatement
	return []*Concept{
		{
			Name:      "Total revenue",
			Statement: st,
			TaxonomyPatterns: join(
				gaap("Revenues", "RevenueFromContractWithCustomerExcludingAssessedTax",
					"RevenueFromContractWithCustomerIncludingAssessedTax", "SalesRevenueNet",
					"SalesRevenueGoodsNet", "Revenue", "RevenuesNetOfInterestExpense"),
				ext(`\w*TotalRevenues?`, `\w*Revenues?Net`),
			),
			HumanPatterns: labels(`^total (net )?(revenues?|sales)\b`, `^(net )?(revenues?|sales)$`,
				`^net sales\b`, `^revenues?\b`),
			Sign:     Positive,
			Aliases:  []string{"Revenue", "Revenues", "Net sales", "Sales"},
			Subtotal: true,
			UnitType: data.UnitCurrency,
		},
		{
			Name:      "COGS",
			Statement: st,
			TaxonomyPatterns: gaap("CostOfGoodsAndServicesSold", "CostOfRevenue", "CostOfGoodsSold",
				"CostOfGoodsAndServiceExcludingDepreciationDepletionAndAmortization", "CostOfSales", "CostOfServices"),
			HumanPatterns: labels(`^total cost of (sales|revenues?|goods sold)`, `^cost of (sales|revenues?|goods( and services)? sold)`),
			Sign:          Positive,
			Aliases:       []string{"Cost of revenue", "Cost of sales", "Cost of goods sold"},
			Subtotal:      true,
			UnitType:      data.UnitCurrency,
		},
		{
			Name:             "Gross profit",
			Statement:        st,
			TaxonomyPatterns: gaap("GrossProfit"),
			HumanPatterns:    labels(`^gross (profit|margin)`),
			Sign:             Either,
			Aliases:          []string{"Gross margin"},
			Subtotal:         true,
			UnitType:         data.UnitCurrency,
		},
		{
			Name:      "R&D",
			Statement: st,
			TaxonomyPatterns: gaap("ResearchAndDevelopmentExpense",
				"ResearchAndDevelopmentExpenseExcludingAcquiredInProcessCost", "ResearchAndDevelopmentExpenseSoftwareExcludingAcquiredInProcessCost"),
			HumanPatterns: labels(`^research and development`, `^r&d\b`, `^technology and development`),
			Sign:          Positive,
			Aliases:       []string{"Research and development"},
			UnitType:      data.UnitCurrency,
		},
		{
			Name:             "SG&A",
			Statement:        st,
			TaxonomyPatterns: gaap("SellingGeneralAndAdministrativeExpense", "SellingGeneralAndAdministrativeExpenses"),
			HumanPatterns:    labels(`^selling, general,? and administrative`, `^sg&a\b`),
			Sign:             Positive,
			Aliases:          []string{"Selling, general and administrative"},
			UnitType:         data.UnitCurrency,
		},
		{
			Name:             "Operating expenses",
			Statement:        st,
			TaxonomyPatterns: gaap("OperatingExpenses", "CostsAndExpenses"),
			HumanPatterns:    labels(`^total operating expenses`, `^operating expenses$`, `^total costs and expenses`),
			Sign:             Positive,
			Aliases:          []string{"Total operating expenses"},
			Subtotal:         true,
			UnitType:         data.UnitCurrency,
		},
		{
			Name:             "Operating income",
			Statement:        st,
			TaxonomyPatterns: gaap("OperatingIncomeLoss", "ProfitLossFromOperatingActivities"),
			HumanPatterns:    labels(`^operating (income|loss|profit)`, `^(income|loss|profit)( \(loss\))? from operations`),
			Sign:             Either,
			Aliases:          []string{"Operating profit", "Income from operations"},
			Subtotal:         true,
			UnitType:         data.UnitCurrency,
		},
		{
			Name:             "Interest expense",
			Statement:        st,
			TaxonomyPatterns: gaap("InterestExpense", "InterestExpenseNonoperating", "InterestExpenseDebt", "FinanceCosts"),
			HumanPatterns:    labels(`^interest expense`),
			Sign:             Positive,
			UnitType:         data.UnitCurrency,
		},
		{
			Name:             "Other income",
			Statement:        st,
			TaxonomyPatterns: gaap("NonoperatingIncomeExpense", "OtherNonoperatingIncomeExpense", "OtherNonoperatingIncome"),
			HumanPatterns:    labels(`^other income`, `^other (income|expense)`, `^other, net$`),
			Sign:             Either,
			Aliases:          []string{"Other income (expense), net"},
			UnitType:         data.UnitCurrency,
		},
		{
			Name:      "Pretax income",
			Statement: st,
			TaxonomyPatterns: gaap("IncomeLossFromContinuingOperationsBeforeIncomeTaxesExtraordinaryItemsNoncontrollingInterest",
				"IncomeLossFromContinuingOperationsBeforeIncomeTaxesMinorityInterestAndIncomeLossFromEquityMethodInvestments",
				"IncomeLossFromContinuingOperationsBeforeIncomeTaxesDomestic", "ProfitLossBeforeTax"),
			HumanPatterns: labels(`before (provision for )?income tax`, `^pre-?tax (income|profit)`),
			Sign:          Either,
			Aliases:       []string{"Income before taxes"},
			Subtotal:      true,
			UnitType:      data.UnitCurrency,
		},
		{
			Name:             "Income tax",
			Statement:        st,
			TaxonomyPatterns: gaap("IncomeTaxExpenseBenefit", "IncomeTaxExpenseContinuingOperations"),
			HumanPatterns:    labels(`^(provision for|benefit from|\(?benefit\)? provision for) income tax`, `^income tax(es)? (expense|provision|benefit)`, `^income taxes$`),
			Sign:             Either,
			Aliases:          []string{"Provision for income taxes"},
			UnitType:         data.UnitCurrency,
		},
		{
			Name:      "Net income",
			Statement: st,
			TaxonomyPatterns: join(
				gaap("NetIncomeLoss", "ProfitLossAttributableToOwnersOfParent", "ProfitLoss",
					"NetIncomeLossAvailableToCommonStockholdersBasic"),
				ext(`NetIncomeLoss\w*`),
			),
			HumanPatterns: labels(`^net (income|earnings|loss|profit)( \(loss\))?`, `^(profit|income) for the (year|period)`),
			Sign:          Either,
			Aliases:       []string{"Net earnings", "Net profit"},
			Subtotal:      true,
			UnitType:      data.UnitCurrency,
		},
		{
			Name:      "EPS basic",
			Statement: st,
			TaxonomyPatterns: gaap("EarningsPerShareBasic", "EarningsPerShareBasicAndDiluted",
				"BasicEarningsLossPerShare", "IncomeLossFromContinuingOperationsPerBasicShare"),
			HumanPatterns: labels(`basic.*per (common )?share`, `per (common )?share.*basic`, `^basic (net )?(earnings|income|loss)`),
			Sign:          Either,
			Aliases:       []string{"Basic EPS"},
			UnitType:      data.UnitPerShare,
		},
		{
			Name:      "EPS diluted",
			Statement: st,
			TaxonomyPatterns: gaap("EarningsPerShareDiluted", "EarningsPerShareBasicAndDiluted",
				"DilutedEarningsLossPerShare", "IncomeLossFromContinuingOperationsPerDilutedShare"),
			HumanPatterns: labels(`diluted.*per (common )?share`, `per (common )?share.*diluted`, `^diluted (net )?(earnings|income|loss)`),
			Sign:          Either,
			Aliases:       []string{"Diluted EPS"},
			UnitType:      data.UnitPerShare,
		},
		{
			Name:      "Shares outstanding basic",
			Statement: st,
			TaxonomyPatterns: gaap("WeightedAverageNumberOfSharesOutstandingBasic",
				"WeightedAverageNumberOfShareOutstandingBasicAndDiluted", "WeightedAverageShares"),
			HumanPatterns: labels(`weighted.average.*basic`, `basic.*weighted.average`, `^basic (weighted )?shares`),
			Sign:          Positive,
			Aliases:       []string{"Basic shares"},
			UnitType:      data.UnitShares,
		},
		{
			Name:      "Shares outstanding diluted",
			Statement: st,
			TaxonomyPatterns: gaap("WeightedAverageNumberOfDilutedSharesOutstanding",
				"WeightedAverageNumberOfShareOutstandingBasicAndDiluted", "AdjustedWeightedAverageShares"),
			HumanPatterns: labels(`weighted.average.*diluted`, `diluted.*weighted.average`, `^diluted (weighted )?shares`),
			Sign:          Positive,
			Aliases:       []string{"Diluted shares"},
			UnitType:      data.UnitShares,
		},
	}
}
