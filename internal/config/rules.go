package config

// defaultVendorRules covers the vendors that show up constantly on UAE
// invoices. The list is a starting point; deployments extend it in the
// config file.
func defaultVendorRules() []VendorRule {
	return []VendorRule{
		// Telecom
		{Match: "etisalat", Name: "Etisalat", Category: "Telecommunications"},
		{Match: "emirates telecom", Name: "Etisalat", Category: "Telecommunications"},
		{Match: "du ", Name: "Du", Category: "Telecommunications"},
		{Match: "virgin mobile", Name: "Virgin Mobile", Category: "Telecommunications"},

		// Utilities
		{Match: "dewa", Name: "DEWA", Category: "Utilities"},
		{Match: "dubai electricity", Name: "DEWA", Category: "Utilities"},
		{Match: "sewa", Name: "SEWA", Category: "Utilities"},
		{Match: "addc", Name: "ADDC", Category: "Utilities"},
		{Match: "fewa", Name: "FEWA", Category: "Utilities"},
		{Match: "empower", Name: "Empower", Category: "Utilities"},

		// Fuel & transport
		{Match: "adnoc", Name: "ADNOC", Category: "Fuel & Transport"},
		{Match: "enoc", Name: "ENOC", Category: "Fuel & Transport"},
		{Match: "eppco", Name: "EPPCO", Category: "Fuel & Transport"},
		{Match: "emarat", Name: "Emarat", Category: "Fuel & Transport"},
		{Match: "salik", Name: "Salik", Category: "Fuel & Transport"},
		{Match: "careem", Name: "Careem", Category: "Fuel & Transport"},
		{Match: "uber", Name: "Uber", Category: "Fuel & Transport"},

		// Government
		{Match: "rta", Name: "RTA", Category: "Government Fees"},
		{Match: "ejari", Name: "Ejari", Category: "Government Fees"},
		{Match: "tasheel", Name: "Tasheel", Category: "Government Fees"},
		{Match: "amer", Name: "Amer Centre", Category: "Government Fees"},
		{Match: "ded ", Name: "Dubai Economy", Category: "Government Fees"},

		// Insurance
		{Match: "daman", Name: "Daman", Category: "Insurance"},
		{Match: "axa", Name: "AXA Gulf", Category: "Insurance"},
		{Match: "sukoon", Name: "Sukoon Insurance", Category: "Insurance"},
		{Match: "orient insurance", Name: "Orient Insurance", Category: "Insurance"},

		// IT & software
		{Match: "microsoft", Name: "Microsoft", Category: "IT & Software"},
		{Match: "amazon web services", Name: "AWS", Category: "IT & Software"},
		{Match: "aws", Name: "AWS", Category: "IT & Software"},
		{Match: "google cloud", Name: "Google Cloud", Category: "IT & Software"},
		{Match: "github", Name: "GitHub", Category: "IT & Software"},
		{Match: "zoom", Name: "Zoom", Category: "IT & Software"},
		{Match: "adobe", Name: "Adobe", Category: "IT & Software"},
		{Match: "slack", Name: "Slack", Category: "IT & Software"},

		// Travel
		{Match: "emirates airline", Name: "Emirates", Category: "Travel & Accommodation"},
		{Match: "etihad", Name: "Etihad Airways", Category: "Travel & Accommodation"},
		{Match: "flydubai", Name: "flydubai", Category: "Travel & Accommodation"},
		{Match: "air arabia", Name: "Air Arabia", Category: "Travel & Accommodation"},
		{Match: "airbnb", Name: "Airbnb", Category: "Travel & Accommodation"},
		{Match: "booking.com", Name: "Booking.com", Category: "Travel & Accommodation"},

		// Meals
		{Match: "talabat", Name: "Talabat", Category: "Meals & Entertainment"},
		{Match: "zomato", Name: "Zomato", Category: "Meals & Entertainment"},
		{Match: "deliveroo", Name: "Deliveroo", Category: "Meals & Entertainment"},
		{Match: "starbucks", Name: "Starbucks", Category: "Meals & Entertainment"},
		{Match: "costa coffee", Name: "Costa Coffee", Category: "Meals & Entertainment"},

		// Shopping / supplies
		{Match: "carrefour", Name: "Carrefour", Category: "Office Supplies"},
		{Match: "lulu", Name: "Lulu Hypermarket", Category: "Office Supplies"},
		{Match: "amazon.ae", Name: "Amazon.ae", Category: "Office Supplies"},
		{Match: "noon", Name: "Noon", Category: "Office Supplies"},
		{Match: "office depot", Name: "Office Depot", Category: "Office Supplies"},
	}
}

// defaultKeywordRules is the fallback categorization when no vendor rule
// matched. Keywords are checked against the vendor name and notes.
func defaultKeywordRules() []KeywordRule {
	return []KeywordRule{
		{Keyword: "electricity", Category: "Utilities"},
		{Keyword: "water", Category: "Utilities"},
		{Keyword: "cooling", Category: "Utilities"},

		{Keyword: "telecom", Category: "Telecommunications"},
		{Keyword: "internet", Category: "Telecommunications"},
		{Keyword: "mobile", Category: "Telecommunications"},
		{Keyword: "broadband", Category: "Telecommunications"},

		{Keyword: "petrol", Category: "Fuel & Transport"},
		{Keyword: "fuel", Category: "Fuel & Transport"},
		{Keyword: "parking", Category: "Fuel & Transport"},
		{Keyword: "taxi", Category: "Fuel & Transport"},
		{Keyword: "toll", Category: "Fuel & Transport"},

		{Keyword: "garage", Category: "Vehicle Maintenance"},
		{Keyword: "auto repair", Category: "Vehicle Maintenance"},
		{Keyword: "tyre", Category: "Vehicle Maintenance"},

		{Keyword: "rent", Category: "Rent"},
		{Keyword: "lease", Category: "Rent"},

		{Keyword: "insurance", Category: "Insurance"},
		{Keyword: "takaful", Category: "Insurance"},

		{Keyword: "software", Category: "IT & Software"},
		{Keyword: "hosting", Category: "IT & Software"},
		{Keyword: "saas", Category: "IT & Software"},
		{Keyword: "license", Category: "IT & Software"},

		{Keyword: "advertising", Category: "Marketing & Advertising"},
		{Keyword: "marketing", Category: "Marketing & Advertising"},

		{Keyword: "hotel", Category: "Travel & Accommodation"},
		{Keyword: "flight", Category: "Travel & Accommodation"},
		{Keyword: "airline", Category: "Travel & Accommodation"},

		{Keyword: "restaurant", Category: "Meals & Entertainment"},
		{Keyword: "cafe", Category: "Meals & Entertainment"},
		{Keyword: "catering", Category: "Meals & Entertainment"},

		{Keyword: "consulting", Category: "Professional Services"},
		{Keyword: "audit", Category: "Professional Services"},
		{Keyword: "legal", Category: "Professional Services"},
		{Keyword: "accounting", Category: "Professional Services"},

		{Keyword: "bank charge", Category: "Bank Charges"},
		{Keyword: "bank fee", Category: "Bank Charges"},

		{Keyword: "stationery", Category: "Office Supplies"},
		{Keyword: "supplies", Category: "Office Supplies"},
	}
}
