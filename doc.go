/*
Package switchboard is a workflow engine for customer-support conversations.

Each user message runs a small graph of steps (classification, resolution,
escalation) over a checkpointed session State. Steps never mutate the State:
they return partial updates that a reducer registry folds in, and a router
picks the next step from the State alone. After the graph ends, a memory
update step refreshes the rolling summary and records finished cases for
long-term recall.

# Usage

	eng, err := switchboard.New()
	if err != nil {
		log.Fatal(err)
	}

	resp, err := eng.Submit(ctx, switchboard.SubmitRequest{
		Input:  "I can't log in to my account",
		UserID: "user-42",
	})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(resp.Reply)

	// Follow-ups reuse the returned session id.
	resp, err = eng.Submit(ctx, switchboard.SubmitRequest{
		SessionID: resp.SessionID,
		Input:     "thanks, that solved it",
		UserID:    "user-42",
	})

# Persistence

Sessions are kept in memory by default. Use WithStore with one of the
adapters under pkg/adapters (file, redis, sqlite) for durable sessions, and
WithLocker with the redis locker when several replicas share a store.
*/
package switchboard
