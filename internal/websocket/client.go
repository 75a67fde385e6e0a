package websocket

import (
	"context"
	"time"

	ws "github.com/coder/websocket"

	"github.com/dukerupert/dinobank/internal/access"
	"github.com/dukerupert/dinobank/internal/model"
)

const (
	sendBufferSize = 16
	pingInterval   = 30 * time.Second
	writeTimeout   = 10 * time.Second
)

// Client is one websocket connection in a family room. viewer is the
// account that opened it; it only receives events for accounts it may read.
type Client struct {
	hub      *Hub
	conn     *ws.Conn
	familyID int64
	viewer   access.Principal
	send     chan []byte
}

// NewClient creates a Client for viewer in the family's room.
func NewClient(hub *Hub, conn *ws.Conn, familyID int64, viewer access.Principal) *Client {
	return &Client{
		hub:      hub,
		conn:     conn,
		familyID: familyID,
		viewer:   viewer,
		send:     make(chan []byte, sendBufferSize),
	}
}

// canSee applies the same read rule as the ledger endpoints: the account
// itself or its managing parent. Every account in a room belongs to the
// family, so familyID is the managing parent of any child account.
func (c *Client) canSee(familyID, accountID int64) bool {
	subject := &model.Account{ID: accountID}
	if accountID != familyID {
		subject.ParentID = &familyID
	}
	return access.Allowed(c.viewer, access.ReadLedger, access.Target{Account: subject})
}

// enqueue hands data to the write pump, dropping it when the client is too
// slow to keep up.
func (c *Client) enqueue(data []byte) bool {
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// Run joins the family room and forwards events until the peer goes away or
// the hub drops the client. The room is receive-only: any data frame from the
// peer closes the connection.
func (c *Client) Run(ctx context.Context) {
	c.hub.Register(c)
	defer c.hub.Unregister(c)

	c.forward(c.conn.CloseRead(ctx))
}

func (c *Client) forward(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				c.conn.Close(ws.StatusGoingAway, "room closed")
				return
			}
			if err := c.write(ctx, msg); err != nil {
				return
			}
		case <-ticker.C:
			pctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := c.conn.Ping(pctx)
			cancel()
			if err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func (c *Client) write(ctx context.Context, msg []byte) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return c.conn.Write(ctx, ws.MessageText, msg)
}
