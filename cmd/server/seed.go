package main

import (
	"github.com/tallyhq/tally/internal/tracker"
)

// seedSampleData populates the tracker with two demo groups covering all
// three split kinds. Everything lives in memory, so this is only useful
// for demos and manual poking.
func seedSampleData(tr *tracker.Tracker) error {
	trip, err := tr.CreateGroup("Family Trip", "Summer vacation expenses", "USD")
	if err != nil {
		return err
	}
	alice, err := tr.AddUser(trip.ID, "Alice Johnson", "alice@example.com")
	if err != nil {
		return err
	}
	bob, err := tr.AddUser(trip.ID, "Bob Smith", "bob@example.com")
	if err != nil {
		return err
	}
	carol, err := tr.AddUser(trip.ID, "Carol Davis", "carol@example.com")
	if err != nil {
		return err
	}

	if _, err := tr.AddExpenseEqualSplit(trip.ID, 300.00, "Hotel Booking",
		alice.ID, []string{alice.ID, bob.ID, carol.ID}); err != nil {
		return err
	}
	if _, err := tr.AddExpenseExactSplit(trip.ID, 150.00, "Gas and Tolls",
		bob.ID, map[string]float64{alice.ID: 50.00, bob.ID: 60.00, carol.ID: 40.00}); err != nil {
		return err
	}
	if _, err := tr.AddExpensePercentageSplit(trip.ID, 240.00, "Restaurant Dinner",
		carol.ID, map[string]float64{alice.ID: 40.0, bob.ID: 35.0, carol.ID: 25.0}); err != nil {
		return err
	}

	lunch, err := tr.CreateGroup("Office Lunch", "Weekly team lunch expenses", "USD")
	if err != nil {
		return err
	}
	david, err := tr.AddUser(lunch.ID, "David Wilson", "david@example.com")
	if err != nil {
		return err
	}
	eva, err := tr.AddUser(lunch.ID, "Eva Brown", "eva@example.com")
	if err != nil {
		return err
	}

	if _, err := tr.AddExpenseEqualSplit(lunch.ID, 85.00, "Pizza Lunch",
		david.ID, []string{david.ID, eva.ID}); err != nil {
		return err
	}

	return nil
}
