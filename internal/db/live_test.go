package db

import (
	"context"
	"fmt"
	"os"
	"testing"
)

// TestLiveDatabase opens the real history database and lists recent
// conversations. Skipped if the database doesn't exist.
func TestLiveDatabase(t *testing.T) {
	dbPath := DefaultDBPath()
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Skip("database not found at", dbPath)
	}

	store := New(dbPath)
	defer store.Close()
	ctx := context.Background()

	convs, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	fmt.Printf("Recent conversations: %d\n", len(convs))
	for _, c := range convs {
		fmt.Printf("  %d. %s (%s, %d phrases)\n", c.ID, c.Name,
			c.Date.Local().Format("2006-01-02 15:04"), len(c.Phrases))
	}

	if len(convs) == 0 {
		return
	}
	got, err := store.Get(ctx, convs[0].ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil {
		t.Fatalf("Get(%d) = nil for a listed conversation", convs[0].ID)
	}
}
