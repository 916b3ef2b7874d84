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

// balanceConcepts is a starter catalog covering the headline balance sheet lines
func balanceConcepts() []*Concept {
	st := data.BalanceSheet
	return []*Concept{
		{
			Name:      "Cash and equivalents",
			Statement: st,
			TaxonomyPatterns: gaap("CashAndCashEquivalentsAtCarryingValue",
				"CashCashEquivalentsRestrictedCashAndRestrictedCashEquivalents", "CashAndCashEquivalents", "Cash"),
			HumanPatterns: labels(`^cash and (cash )?equivalents`, `^cash$`),
			Sign:          Positive,
			Aliases:       []string{"Cash"},
			UnitType:      data.UnitCurrency,
		},
		{
			Name:      "Short-term investments",
			Statement: st,
			TaxonomyPatterns: gaap("MarketableSecuritiesCurrent", "ShortTermInvestments",
				"AvailableForSaleSecuritiesDebtSecuritiesCurrent", "CurrentFinancialAssetsAtFairValueThroughProfitOrLoss"),
			HumanPatterns: labels(`^(current |short-term )?marketable securities`, `^short-term investments`),
			Sign:          Positive,
			UnitType:      data.UnitCurrency,
		},
		{
			Name:             "Accounts receivable",
			Statement:        st,
			TaxonomyPatterns: gaap("AccountsReceivableNetCurrent", "ReceivablesNetCurrent", "TradeAndOtherCurrentReceivables"),
			HumanPatterns:    labels(`^accounts receivable`, `^(trade )?receivables`),
			Sign:             Positive,
			UnitType:         data.UnitCurrency,
		},
		{
			Name:             "Inventory",
			Statement:        st,
			TaxonomyPatterns: gaap("InventoryNet", "Inventories"),
			HumanPatterns:    labels(`^inventor(y|ies)`),
			Sign:             Positive,
			UnitType:         data.UnitCurrency,
		},
		{
			Name:             "Total current assets",
			Statement:        st,
			TaxonomyPatterns: gaap("AssetsCurrent", "CurrentAssets"),
			HumanPatterns:    labels(`^total current assets`),
			Sign:             Positive,
			Subtotal:         true,
			UnitType:         data.UnitCurrency,
		},
		{
			Name:      "PP&E net",
			Statement: st,
			TaxonomyPatterns: gaap("PropertyPlantAndEquipmentNet",
				"PropertyPlantAndEquipmentAndFinanceLeaseRightOfUseAssetAfterAccumulatedDepreciationAndAmortization", "PropertyPlantAndEquipment"),
			HumanPatterns: labels(`^property,? (plant )?and equipment`, `^pp&e`),
			Sign:          Positive,
			UnitType:      data.UnitCurrency,
		},
		{
			Name:             "Goodwill",
			Statement:        st,
			TaxonomyPatterns: gaap("Goodwill"),
			HumanPatterns:    labels(`^goodwill$`),
			Sign:             Positive,
			UnitType:         data.UnitCurrency,
		},
		{
			Name:             "Total assets",
			Statement:        st,
			TaxonomyPatterns: gaap("Assets"),
			HumanPatterns:    labels(`^total assets`),
			Sign:             Positive,
			Subtotal:         true,
			UnitType:         data.UnitCurrency,
		},
		{
			Name:             "Accounts payable",
			Statement:        st,
			TaxonomyPatterns: gaap("AccountsPayableCurrent", "TradeAndOtherCurrentPayables"),
			HumanPatterns:    labels(`^accounts payable`),
			Sign:             Positive,
			UnitType:         data.UnitCurrency,
		},
		{
			Name:             "Total current liabilities",
			Statement:        st,
			TaxonomyPatterns: gaap("LiabilitiesCurrent", "CurrentLiabilities"),
			HumanPatterns:    labels(`^total current liabilities`),
			Sign:             Positive,
			Subtotal:         true,
			UnitType:         data.UnitCurrency,
		},
		{
			Name:             "Long-term debt",
			Statement:        st,
			TaxonomyPatterns: gaap("LongTermDebtNoncurrent", "LongTermDebt", "NoncurrentPortionOfNoncurrentBorrowings"),
			HumanPatterns:    labels(`^(non-current |long-term )(term )?debt`, `^long-term borrowings`),
			Sign:             Positive,
			UnitType:         data.UnitCurrency,
		},
		{
			Name:             "Total liabilities",
			Statement:        st,
			TaxonomyPatterns: gaap("Liabilities"),
			HumanPatterns:    labels(`^total liabilities$`),
			Sign:             Positive,
			Subtotal:         true,
			UnitType:         data.UnitCurrency,
		},
		{
			Name:      "Total equity",
			Statement: st,
			TaxonomyPatterns: gaap("StockholdersEquity",
				"StockholdersEquityIncludingPortionAttributableToNoncontrollingInterest", "Equity"),
			HumanPatterns: labels(`^total (stockholders'?|shareholders'?) equity`, `^total equity`),
			Sign:          Either,
			Aliases:       []string{"Shareholders equity"},
			Subtotal:      true,
			UnitType:      data.UnitCurrency,
		},
		{
			Name:             "Total liabilities and equity",
			Statement:        st,
			TaxonomyPatterns: gaap("LiabilitiesAndStockholdersEquity", "EquityAndLiabilities"),
			HumanPatterns:    labels(`^total liabilities and (stockholders'?|shareholders'?)? ?equity`),
			Sign:             Positive,
			Subtotal:         true,
			UnitType:         data.UnitCurrency,
		},
	}
}
