package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"
)

// Client provides RPC access to the daemon.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the IPC server at the given socket path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return nil, err
	}
	rpcClient := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	return &Client{conn: conn, client: rpcClient}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		_ = c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Start requests the daemon to resume enforcement.
func (c *Client) Start() (*StartResponse, error) {
	var resp StartResponse
	if err := c.client.Call("Volcap.Start", StartRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Stop requests the daemon to halt enforcement.
func (c *Client) Stop() (*StopResponse, error) {
	var resp StopResponse
	if err := c.client.Call("Volcap.Stop", StopRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status retrieves the daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.client.Call("Volcap.Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Devices lists devices, optionally including disconnected ones with
// persisted ceilings.
func (c *Client) Devices(includeDisconnected bool) (*DevicesResponse, error) {
	var resp DevicesResponse
	req := DevicesRequest{IncludeDisconnected: includeDisconnected}
	if err := c.client.Call("Volcap.Devices", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GlobalMax retrieves the global ceiling.
func (c *Client) GlobalMax() (*GlobalMaxResponse, error) {
	var resp GlobalMaxResponse
	if err := c.client.Call("Volcap.GlobalMax", GlobalMaxRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SetGlobalMax updates the global ceiling.
func (c *Client) SetGlobalMax(maxVolume float64) (*SetGlobalMaxResponse, error) {
	var resp SetGlobalMaxResponse
	req := SetGlobalMaxRequest{MaxVolume: maxVolume}
	if err := c.client.Call("Volcap.SetGlobalMax", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SetDeviceMax updates one device's ceiling.
func (c *Client) SetDeviceMax(id string, maxVolume float64) (*SetDeviceMaxResponse, error) {
	var resp SetDeviceMaxResponse
	req := SetDeviceMaxRequest{ID: id, MaxVolume: maxVolume}
	if err := c.client.Call("Volcap.SetDeviceMax", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DevicesWait long-polls for a device-list change.
func (c *Client) DevicesWait(req DevicesWaitRequest) (*DevicesWaitResponse, error) {
	var resp DevicesWaitResponse
	if err := c.client.Call("Volcap.DevicesWait", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
