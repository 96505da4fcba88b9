package bot

// Command constants for Telegram bot commands.
const (
	CommandStart    = "/start"
	CommandBirthday = "/birthday"
	CommandTime     = "/time"
	CommandStop     = "/stop"
	CommandToday    = "/today"
	CommandCancel   = "/cancel"
	CommandHelp     = "/help"
)
