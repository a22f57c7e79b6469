package room

import (
	"crypto/rand"
	"math/big"

	"github.com/hilthontt/todoroom/internal/domain"
)

var codeSpace = big.NewInt(domain.RoomCodeSpace)

func randomCode() (int, error) {
	n, err := rand.Int(rand.Reader, codeSpace)
	if err != nil {
		return 0, err
	}
	return int(n.Int64()), nil
}
