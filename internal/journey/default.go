package journey

// Default returns the built-in relocation checklist. Each call returns a
// fresh slice.
func Default() []Task {
	return []Task{
		{ID: "set-budget", Title: "Set a moving budget", Description: "Estimate movers, travel, deposits and overlap rent.", Priority: PriorityHigh, Timeframe: "8 weeks before", Week: 1, Category: "planning"},
		{ID: "research-movers", Title: "Research moving companies", Description: "Compare at least three licensed movers and read reviews.", Priority: PriorityHigh, Timeframe: "8 weeks before", Week: 1, Category: "moving"},
		{ID: "request-quotes", Title: "Request moving quotes", Description: "Share your inventory questionnaire with movers for accurate quotes.", Priority: PriorityHigh, Timeframe: "7 weeks before", Week: 2, Category: "moving"},
		{ID: "find-housing", Title: "Secure housing at your destination", Description: "Tour rentals or homes and sign a lease or purchase agreement.", Priority: PriorityHigh, Timeframe: "7 weeks before", Week: 2, Category: "housing"},
		{ID: "book-mover", Title: "Book your mover", Description: "Confirm the date, insurance coverage and deposit with your chosen mover.", Priority: PriorityHigh, Timeframe: "6 weeks before", Week: 3, Category: "moving"},
		{ID: "school-records", Title: "Transfer school records", Description: "Request records and enroll children at the new school.", Priority: PriorityMedium, Timeframe: "6 weeks before", Week: 3, Category: "documentation"},
		{ID: "declutter", Title: "Declutter and donate", Description: "Sell or donate what you will not move to cut costs.", Priority: PriorityMedium, Timeframe: "5 weeks before", Week: 4, Category: "planning"},
		{ID: "change-address", Title: "File a change of address", Description: "Submit USPS mail forwarding and update banks and subscriptions.", Priority: PriorityHigh, Timeframe: "4 weeks before", Week: 4, Category: "administrative"},
		{ID: "setup-utilities", Title: "Set up utilities", Description: "Schedule electricity, water, gas and internet at the new home.", Priority: PriorityHigh, Timeframe: "3 weeks before", Week: 5, Category: "utilities"},
		{ID: "cancel-utilities", Title: "Schedule utility shutoff", Description: "Arrange final readings at your current home for the day after moving.", Priority: PriorityMedium, Timeframe: "3 weeks before", Week: 5, Category: "utilities"},
		{ID: "pack-essentials", Title: "Pack an essentials box", Description: "Keep documents, medication, chargers and a change of clothes with you.", Priority: PriorityMedium, Timeframe: "1 week before", Week: 6, Category: "moving"},
		{ID: "update-license", Title: "Update driver's license and registration", Description: "Visit the DMV in your new state within its deadline.", Priority: PriorityHigh, Timeframe: "After moving", Week: 7, Category: "documentation"},
		{ID: "register-vote", Title: "Register to vote", Description: "Update your voter registration at the new address.", Priority: PriorityLow, Timeframe: "After moving", Week: 7, Category: "administrative"},
		{ID: "find-local-services", Title: "Find local services", Description: "Pick a doctor, dentist, vet and other local providers.", Priority: PriorityLow, Timeframe: "After moving", Week: 8, Category: "local-services"},
	}
}
