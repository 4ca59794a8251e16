package tcp

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"time"

	"teamchat/internal/microservices/chat"
	"teamchat/internal/shared"
	"teamchat/pkg/models"
)

// AuthTimeout bounds how long a fresh connection may wait before
// presenting its token
const AuthTimeout = 10 * time.Second

// authenticate reads the first line, which must be an auth event carrying
// a bearer token, and validates it against the hub.
func authenticate(scanner *bufio.Scanner, conn net.Conn, hub *chat.Hub) (*shared.AuthClaims, error) {
	conn.SetReadDeadline(time.Now().Add(AuthTimeout))

	if !scanner.Scan() {
		err := scanner.Err()
		if err == nil {
			err = io.EOF
		}
		return nil, fmt.Errorf("%w: no auth line: %v", shared.ErrAuthenticationRejected, err)
	}

	env, err := models.Decode(scanner.Bytes())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAuthenticationRejected, err)
	}
	if env.Type != models.EventAuth {
		return nil, fmt.Errorf("%w: expected %q, got %q", shared.ErrAuthenticationRejected, models.EventAuth, env.Type)
	}

	var p models.AuthPayload
	if err := env.DecodeData(&p); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAuthenticationRejected, err)
	}
	return hub.Authenticate(p.Token)
}
