package repository

import (
	"sort"

	model "auction-marketplace/internal/models"
)

// outranks orders bids by amount descending, then earliest first, then by id
func outranks(a, b model.Bid) bool {
	if a.Amount != b.Amount {
		return a.Amount > b.Amount
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}

// RankBids sorts bids in place, highest first
func RankBids(bids []model.Bid) {
	sort.SliceStable(bids, func(i, j int) bool {
		return outranks(bids[i], bids[j])
	})
}

// HighestBid returns the winning bid of a set, if any
func HighestBid(bids []model.Bid) (model.Bid, bool) {
	if len(bids) == 0 {
		return model.Bid{}, false
	}
	winning := bids[0]
	for _, b := range bids[1:] {
		if outranks(b, winning) {
			winning = b
		}
	}
	return winning, true
}

// applySettlement closes the auction on p given its full bid set
func applySettlement(p *model.Product, bids []model.Bid) {
	p.Status = model.StatusEnded
	if highest, ok := HighestBid(bids); ok {
		winner := highest.BidderID
		p.WinnerID = &winner
		p.Settlement = model.SettlementWithWinner
		return
	}
	p.WinnerID = nil
	p.Settlement = model.SettlementNoBids
}
