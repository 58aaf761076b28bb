package testutil

import (
	"reflect"

	"github.com/junioryono/keel"
)

// Ids used by the application fixture
const (
	LoggerID    = "logger"
	DSNID       = "db.dsn"
	HandlersTag = "handlers"
	HandlersID  = "handlers.all"
	KeyedID     = "handlers.keyed"
	LazyID      = "handlers.lazy"
	MailerID    = "mailer"
	ClientID    = "client.api"
	AppConfigID = "app.config"
	GreetingID  = "greeting"
)

// AppConfig is the value registered under AppConfigID
var AppConfig = Config{
	Name:   "billing",
	Port:   8080,
	Debug:  true,
	Tags:   []string{"a", "b"},
	Limits: map[string]int{"burst": 10, "rate": 5},
}

// AppModule registers a small application exercising every built-in kind
func AppModule() keel.Module {
	return keel.NewModule("app",
		keel.Provide(
			keel.Construct(NewLogger, keel.ID(LoggerID), keel.AsSingleton()),
			keel.Reference(keel.TypeIDOf[Logger](), LoggerID),
			keel.Value(DSNID, "postgres://localhost/app"),
			keel.Construct(NewDatabase, keel.AsSingleton(), keel.WithArgs(keel.Ref(DSNID))),
			keel.Construct(NewService),
			keel.Construct(NewHighHandler, keel.WithTag(HandlersTag)),
			keel.Construct(NewMidHandler, keel.WithTag(HandlersTag)),
			keel.Construct(NewLowHandler, keel.WithTag(HandlersTag, keel.Key("lo"))),
			keel.TaggedAs(HandlersID, HandlersTag, keel.CollectionPriorityMethod("Priority")),
			keel.TaggedAs(KeyedID, HandlersTag, keel.UseKeys(), keel.KeyDefaultMethod("Key")),
			keel.TaggedAs(LazyID, HandlersTag, keel.Lazy()),
			keel.Construct(NewRouter, keel.WithArgs(keel.Ref(HandlersID))),
			keel.Construct(NewMailer,
				keel.ID(MailerID),
				keel.WithArgs(keel.Named("host", "smtp.local")),
				keel.ParamNames("host"),
				keel.SetupAt(10, "SetPort", 2525),
				keel.Setup("Dial"),
			),
			keel.Factory(ClientID, reflect.TypeFor[*ClientFactory](), keel.WithArgs("api")),
			keel.Value(AppConfigID, AppConfig),
			keel.Callable(GreetingID, Greeting, keel.WithArgs("hello", "ada", "grace")),
		),
	)
}
