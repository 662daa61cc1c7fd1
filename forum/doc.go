// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package forum implements campus Q&A threads and their up/down votes.

# Toggle Votes

Every question and answer carries a tally. Each eligible caller (student
or professor) holds at most one vote per item, either up or down:

	none → up    +1
	none → down  −1
	up   → down  −2
	down → up    +2
	up   → up     0 (no write)
	down → down   0 (no write)

There is no transition back to "no vote". SetVote runs on a
ballot.Box with the Switchable policy: the item_vote row and the tally
column change in the same transaction, so the tally always equals
#up − #down.

# Usage

	svc := forum.NewService(conn)
	v, err := svc.SetVote(ctx, caller, forum.ItemRef{Kind: forum.KindQuestion, ID: id}, forum.Up)
	// v.Votes, v.UserVote

# Visibility

Questions belong to one institute. Answers belong to their question's
institute. Items of another institute read as ErrItemNotFound.
*/
package forum
