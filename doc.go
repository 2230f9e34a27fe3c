// Package linksquared is the Linksquared SDK core: deep link resolution,
// link generation, engagement analytics and in-app notifications for an app
// talking to the Linksquared backend.
//
// A Client is an explicit session object owned by the host:
//
//	client, err := linksquared.New(cfg,
//	    linksquared.WithMetadata(appinfo.Static{
//	        Version:    "1.4.0",
//	        Build:      "212",
//	        Bundle:     "io.example.app",
//	        DeviceName: "Pixel 8",
//	        URISchemes: []string{"example"},
//	    }),
//	)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	if err := client.Configure(ctx); err != nil {
//	    return err
//	}
//
// Configure starts the authentication handshake in the background. Every
// operation that needs a backend session waits for the handshake to finish
// and fails with ErrNotAuthenticated when it did not produce one.
//
// The host reports lifecycle transitions and the intents it is opened with:
//
//	client.Foregrounded(ctx)
//	details, err := client.HandleIntent(ctx, deeplink.NewIntent(uri))
//	client.Backgrounded(ctx)
//
// Analytics events are kept in a durable outbox and submitted as sessions
// come and go. Storage is selected by Config.Storage or supplied with
// WithStore.
//
// Configuration can be read from LINKSQUARED_* environment variables with
// LoadConfig.
package linksquared
