package pick

import "github.com/riskibarqy/nfl-pick-two/internal/domain/game"

type Result string

const (
	ResultWin     Result = "win"
	ResultLoss    Result = "loss"
	ResultPending Result = "pending"
	ResultBye     Result = "bye"
)

// Outcome grades a pick. A missing or non-final game is pending; a final game
// without a matching winner (including a tie) is a loss.
func Outcome(p Pick, g game.Game, found bool) Result {
	tp, ok := p.Team()
	if !ok {
		return ResultBye
	}
	if !found || g.ID != tp.GameID || !g.IsFinal() {
		return ResultPending
	}
	if winner, ok := g.Winner(); ok && winner == tp.TeamID {
		return ResultWin
	}
	return ResultLoss
}
