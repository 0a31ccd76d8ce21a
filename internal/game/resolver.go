package game

// TimeoutMessage is the fixed terminal message for rooms resolved by expiry.
const TimeoutMessage = "Time expired: Funds locked in contract"

// Outcome is the computed distribution of a room's pot. Payouts always sum to
// the escrowed 2x stake together with the forfeited remainder.
type Outcome struct {
	Payout1 int64 // amount returned to player1
	Payout2 int64 // amount returned to player2
	Forfeit int64 // amount locked into contract custody
	Status  Status
	Message string
}

// Resolve applies the payout table to a completed decision pair.
// Both decisions must be set; the ledger only calls this once both slots are.
func Resolve(d1, d2 Decision, stake int64) Outcome {
	switch {
	case d1 == DecisionSplit && d2 == DecisionSplit:
		return Outcome{
			Payout1: stake,
			Payout2: stake,
			Status:  StatusResolved,
			Message: "Both players split: stakes returned",
		}
	case d1 == DecisionSteal && d2 == DecisionSplit:
		return Outcome{
			Payout1: 2 * stake,
			Status:  StatusResolved,
			Message: "Player 1 stole the pot",
		}
	case d1 == DecisionSplit && d2 == DecisionSteal:
		return Outcome{
			Payout2: 2 * stake,
			Status:  StatusResolved,
			Message: "Player 2 stole the pot",
		}
	default: // steal vs steal
		return Outcome{
			Forfeit: 2 * stake,
			Status:  StatusLocked,
			Message: "Both players stole: funds locked in contract",
		}
	}
}

// ResolveTimeout forfeits the whole pot when the window elapsed before both
// decisions arrived. A player who did decide in time gets nothing back either;
// that matches the deployed contract and is deliberate.
func ResolveTimeout(stake int64) Outcome {
	return Outcome{
		Forfeit: 2 * stake,
		Status:  StatusLocked,
		Message: TimeoutMessage,
	}
}
