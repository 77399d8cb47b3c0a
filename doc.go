// Package loginapp is a small server-rendered login site: signup with email
// confirmation, login with a password or a social provider (Google, Facebook,
// GitHub), password recovery by mailed link, a profile page, account deletion
// and logout.
//
// # Architecture
//
// User: one account per email. Site accounts carry a bcrypt password hash and
// start unconfirmed; social accounts start confirmed with a random password.
//
// UserStore: persistence of users. Implementations live under stores/
// (fs for JSON files, gorm for sqlite/postgres, gae for Cloud Datastore).
//
// TokenService: signed, expiring tokens that embed an email. They are the
// only credential in confirmation and recovery links.
//
// Sessions: cookie sessions holding the logged in user id and flash messages.
//
// # Basic Usage
//
//	store := fs.NewUserStore("/path/to/storage")
//	tokens := loginapp.NewTokenService(secret, logger)
//	dispatcher := mailer.NewDispatcher(mailer.DispatcherConfig{}, &mailer.LogTransport{Logger: logger}, logger)
//	mail, _ := mailer.New(mailCfg, tokens, dispatcher, logger)
//	sessions := loginapp.NewSessions(24*time.Hour, false)
//
//	app, err := loginapp.NewApp(store, tokens, mail, sessions, oauth2.NewRegistry(), nil, logger)
//	go dispatcher.Run(ctx)
//	http.ListenAndServe(":5000", app.Handler())
//
// # Routes
//
//	GET/POST /signup            signup form, mails a confirmation link
//	GET/POST /login/            site login
//	GET      /login/{provider}  social login, first leg and callback
//	GET/POST /reset             asks for a recovery link
//	GET      /confirm/{token}   confirms the account and logs in
//	GET/POST /recover/{token}   sets a new password
//	GET      /, /profile        logged in pages
//	POST     /delete_profile    deletes the account
//	GET      /logout
//
// Pages that need a login redirect to /login/?next=<path>.
package loginapp
