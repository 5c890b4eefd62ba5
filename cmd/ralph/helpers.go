package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/steveyegge/ralph/internal/state"
)

// mustLoadDoc loads the state document or exits with a hint to run init.
func mustLoadDoc(path string) *state.Document {
	doc, ok := state.Load(path)
	if !ok {
		fmt.Fprintf(os.Stderr, "Error: no state file found at %s (run \"ralph init\" first)\n", path)
		os.Exit(1)
	}
	return doc
}

func mustSaveDoc(doc *state.Document, path string) {
	if err := state.Save(doc, path); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// parseItemID converts an id argument, exiting on garbage input.
func parseItemID(arg string) int {
	id, err := strconv.Atoi(arg)
	if err != nil || id <= 0 {
		fmt.Fprintf(os.Stderr, "Error: invalid item id %q\n", arg)
		os.Exit(1)
	}
	return id
}

// mustFindItem looks up an item by id or exits.
func mustFindItem(doc *state.Document, id int) *state.WorkItem {
	item := doc.Find(id)
	if item == nil {
		fmt.Fprintf(os.Stderr, "Error: no work item with id %d\n", id)
		os.Exit(1)
	}
	return item
}
