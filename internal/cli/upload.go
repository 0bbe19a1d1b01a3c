// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"os"
	"time"
)

// uploadTimeout bounds document and image uploads. Ingestion of large PDFs
// runs server-side after the upload returns, so this only covers transfer.
const uploadTimeout = 5 * time.Minute

// runUpload handles `upload pdf FILE` and `upload image FILE`.
func (app *App) runUpload(parser *ArgParser) error {
	kind := parser.Positional(1)
	path := parser.Positional(2)
	if kind == "" || path == "" {
		return fmt.Errorf("usage: riverchat upload pdf|image FILE")
	}

	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("cannot read %s: %w", path, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), uploadTimeout)
	defer cancel()

	switch kind {
	case "pdf":
		ack, err := app.Engine.UploadDocument(ctx, path)
		if err != nil {
			return err
		}
		fmt.Fprintf(app.Stdout, "Ingested %s into the knowledge base\n", ack.Filename)
		return nil

	case "image":
		suggestion, err := app.Engine.UploadImage(ctx, path)
		if err != nil {
			return err
		}
		fmt.Fprintln(app.Stdout, "Image uploaded. To reference it, send:")
		fmt.Fprintf(app.Stdout, "  %s\n", suggestion)
		return nil

	default:
		return fmt.Errorf("unknown upload kind %q (want pdf or image)", kind)
	}
}
