// ABOUTME: Output helpers for the charm link and status commands
// ABOUTME: Simplified sync with SSH key auth - no login/logout needed

package charm

import (
	"fmt"
	"io"
)

// Link syncs once to prove the device can reach the server, then prints the
// account it is linked to.
func Link(w io.Writer, c *Client) error {
	cfg := c.Config()
	if c.IsLocal() {
		return fmt.Errorf("storage driver is local; set storage.driver to charm to link")
	}

	fmt.Fprintf(w, "Linking to Charm Cloud (%s)...\n\n", cfg.Host)
	fmt.Fprintln(w, "Charm uses SSH key authentication.")

	if err := c.Sync(); err != nil {
		return fmt.Errorf("link failed: %w", err)
	}

	id, err := c.ID()
	if err != nil {
		fmt.Fprintln(w, "✓ Device linked (ID unavailable)")
	} else {
		fmt.Fprintf(w, "✓ Linked to account: %s\n", id)
	}

	fmt.Fprintf(w, "✓ Auto-sync: %v\n", cfg.AutoSync)
	fmt.Fprintln(w, "\nYour pipeline is now syncing with Charm Cloud!")

	return nil
}

// Status prints sync configuration and key count.
func Status(w io.Writer, c *Client) error {
	cfg := c.Config()

	fmt.Fprintln(w, "Charm Sync Status")
	fmt.Fprintln(w, "─────────────────")
	if c.IsLocal() {
		fmt.Fprintln(w, "Server:    none (local store)")
	} else {
		fmt.Fprintf(w, "Server:    %s\n", cfg.Host)
	}
	fmt.Fprintf(w, "Auto-sync: %v\n", cfg.AutoSync)

	if !c.IsLocal() {
		id, err := c.ID()
		if err != nil {
			fmt.Fprintln(w, "\nStatus: Not connected")
		} else {
			fmt.Fprintln(w, "\nStatus: Connected to Charm Cloud")
			fmt.Fprintf(w, "ID:        %s\n", id)
		}
	}

	keys, err := c.Keys()
	if err != nil {
		return fmt.Errorf("failed to list keys: %w", err)
	}
	fmt.Fprintf(w, "Keys:      %d\n", len(keys))

	return nil
}
