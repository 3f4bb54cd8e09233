package categorize

import "regexp"

// Rule maps a merchant-name pattern to a fixed group/sub category pair.
type Rule struct {
	Pattern *regexp.Regexp
	Group   string
	Sub     string
}

// MerchantRules is the static fallback table, evaluated in order with the
// first match winning. Patterns run against normalized (lower-cased) text.
var MerchantRules = []Rule{
	{regexp.MustCompile(`costco|walmart|wal-mart|kroger|safeway|aldi|trader joe|whole foods|wegmans`), "Food", "Groceries"},
	{regexp.MustCompile(`starbucks|dunkin|peet'?s|coffee`), "Food", "Coffee"},
	{regexp.MustCompile(`mcdonald|chipotle|subway|taco bell|doordash|grubhub|uber\s*eats|restaurant|pizza`), "Food", "Dining Out"},
	{regexp.MustCompile(`shell|chevron|exxon|mobil|\bbp\b|sunoco|speedway`), "Auto", "Fuel"},
	// "uber eats" already matched by the dining rule above, so a bare uber
	// here is the rideshare
	{regexp.MustCompile(`\buber\b|lyft|\bmta\b|transit|parking|toll`), "Auto", "Transit"},
	{regexp.MustCompile(`netflix|spotify|hulu|disney\+|hbo|audible|youtube premium`), "Entertainment", "Streaming"},
	{regexp.MustCompile(`amazon|amzn`), "Shopping", "Online"},
	{regexp.MustCompile(`target|home depot|lowe'?s|best buy|ikea`), "Shopping", "Household"},
	{regexp.MustCompile(`cvs|walgreens|rite aid|pharmacy`), "Health", "Pharmacy"},
	{regexp.MustCompile(`gym|fitness|planet fit|equinox`), "Health", "Fitness"},
	{regexp.MustCompile(`comcast|xfinity|verizon|t-mobile|at&t|spectrum|internet`), "Bills", "Utilities"},
	{regexp.MustCompile(`electric|power co|water dept|gas co|utility`), "Bills", "Utilities"},
	{regexp.MustCompile(`geico|allstate|state farm|progressive|insurance`), "Bills", "Insurance"},
	{regexp.MustCompile(`airbnb|marriott|hilton|hyatt|delta air|united air|southwest|expedia|hotel`), "Travel", "Trips"},
	{regexp.MustCompile(`payroll|direct dep|salary`), "Income", "Paycheck"},
	{regexp.MustCompile(`interest paid|dividend`), "Income", "Interest"},
}
