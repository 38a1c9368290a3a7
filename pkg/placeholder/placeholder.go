package placeholder

import (
	"strconv"
	"strings"

	"github.com/jwebster45206/button-commands/pkg/grid"
	"github.com/jwebster45206/button-commands/pkg/host"
)

const (
	TokenPlayerID   = "{PlayerId}"
	TokenPlayerName = "{PlayerName}"
	TokenPositionX  = "{PositionX}"
	TokenPositionY  = "{PositionY}"
	TokenPositionZ  = "{PositionZ}"
	TokenGrid       = "{Grid}"
)

// Tokens returns every supported token.
func Tokens() []string {
	return []string{TokenPlayerID, TokenPlayerName, TokenPositionX, TokenPositionY, TokenPositionZ, TokenGrid}
}

// Values holds the text substituted for each token.
type Values struct {
	PlayerID   string
	PlayerName string
	Position   host.Vector3
	Grid       string
}

// ValuesFor reads the substitution values from a player. labeler may be nil,
// in which case {Grid} renders empty.
func ValuesFor(player host.Player, labeler grid.Labeler) Values {
	pos := player.Position()
	v := Values{
		PlayerID:   player.UserIDString(),
		PlayerName: player.DisplayName(),
		Position:   pos,
	}
	if labeler != nil {
		v.Grid = labeler.Label(pos)
	}
	return v
}

// Render substitutes every known token in template. Substitution is a single
// pass, so values containing token text are not expanded again. Unknown
// tokens are left as they are.
func Render(template string, v Values) string {
	if !strings.Contains(template, "{") {
		return template
	}
	r := strings.NewReplacer(
		TokenPlayerID, v.PlayerID,
		TokenPlayerName, v.PlayerName,
		TokenPositionX, formatFloat(v.Position.X),
		TokenPositionY, formatFloat(v.Position.Y),
		TokenPositionZ, formatFloat(v.Position.Z),
		TokenGrid, v.Grid,
	)
	return r.Replace(template)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
