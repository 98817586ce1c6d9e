package ai

import (
	"fmt"
	"strings"
)

const categorizeSystemPrompt = "You categorize personal finance transactions.\n" +
	"Return strictly the specified JSON schema. No extra keys, no prose.\n" +
	"- Infer merchant from the description when obvious, else null.\n" +
	"- Choose practical, human-friendly categories (e.g. Groceries, Dining, Transport, Utilities, Rent, " +
	"Income, Entertainment, Health, Shopping, Travel, Fees, Transfers).\n" +
	"- Put brand or store specific detail in subcategory if useful (e.g. \"Supermarket\" or \"Coffee\").\n" +
	"- is_subscription = true for recurring services, memberships or obvious monthly charges.\n" +
	"- confidence reflects certainty from 0 to 1.\n" +
	"- notes is optional brief reasoning if helpful.\n" +
	"- Classify spending_class as one of: \"need\", \"want\" or \"savings\".\n\n" +
	"Examples:\n" +
	"- Groceries, utilities, rent, fuel -> \"need\"\n" +
	"- Dining out, entertainment, shopping -> \"want\"\n" +
	"- Transfers to savings, investments, overpayments -> \"savings\"\n"

const alternativeSystemPrompt = "You are a financial advisor who compares services."

const recipeSystemPrompt = "You write very concise, practical recipe cards as JSON only."

const adviceSystemPrompt = "You are a concise financial advisor."

// NoAlternativesText is the reply requested from the model when nothing cheaper exists.
const NoAlternativesText = "No known cheaper alternatives."

// NoInsightText is the reply requested from the model when a transaction has no useful advice.
const NoInsightText = "No insight"

func buildCategorizePrompt(description string, amount float64) string {
	return "Transaction:\n" +
		fmt.Sprintf("- Description: %s\n", description) +
		fmt.Sprintf("- Amount: %s\n", formatAmount(amount)) +
		"- Currency: EUR\n\n" +
		"Respond using the JSON schema only.\n"
}

func buildAlternativePrompt(service string, monthlyPrice float64) string {
	return fmt.Sprintf("The user is paying %.2f EUR/month for %s.\n", monthlyPrice, service) +
		"Suggest cheaper alternatives available in Europe, if any, and include example monthly prices.\n" +
		fmt.Sprintf("If none exist, just say %q\n", NoAlternativesText)
}

func buildRecipePrompt(item, brandHint string) string {
	var b strings.Builder
	b.WriteString("Create a concise home recipe")
	if brandHint != "" {
		fmt.Fprintf(&b, " (inspired by %s)", brandHint)
	}
	fmt.Fprintf(&b, " for: %s.\n", item)
	b.WriteString("Constraints:\n")
	b.WriteString("- Keep total ingredient cost low and list simple equipment.\n")
	b.WriteString("- Provide: title, ingredients, method (3-6 short steps), est_cost_per_serving (EUR), time_minutes.\n")
	b.WriteString("- Set is_viable to false when the item cannot sensibly be made at home (e.g. a cinema ticket).\n")
	b.WriteString("- Max 120 words.\n")
	b.WriteString("Return ONLY valid raw JSON. Do NOT wrap the response in code fences.\n")
	return b.String()
}

func buildAdvicePrompt(description string, amount float64, merchant string) string {
	if merchant == "" {
		merchant = "Unknown"
	}
	return "Analyze this transaction:\n\n" +
		fmt.Sprintf("Description: %s\n", description) +
		fmt.Sprintf("Merchant: %s\n", merchant) +
		fmt.Sprintf("Amount: %s\n\n", formatAmount(amount)) +
		"Provide a short, practical insight if there is one. For example:\n" +
		"- Suggest switching subscriptions if a cheaper option exists.\n" +
		"- Show monthly and annual cost projections for recurring expenses.\n" +
		"- Suggest alternatives (e.g. making coffee at home).\n" +
		"- Show the opportunity cost if the money were invested in an index fund.\n\n" +
		fmt.Sprintf("If the transaction is a one-time purchase or not meaningful, return %q.\n", NoInsightText)
}

func formatAmount(amount float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", amount), "0"), ".")
}
