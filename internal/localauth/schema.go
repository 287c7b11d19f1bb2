package localauth

// schema is applied on startup. Passwords are hashed by SurrealDB with argon2
// and never leave the database.
const schema = `
DEFINE TABLE IF NOT EXISTS account SCHEMALESS;
DEFINE INDEX IF NOT EXISTS account_uid ON account FIELDS uid UNIQUE;
DEFINE INDEX IF NOT EXISTS account_email ON account FIELDS email UNIQUE;
DEFINE TABLE IF NOT EXISTS auth_link SCHEMALESS;
DEFINE INDEX IF NOT EXISTS auth_link_hash ON auth_link FIELDS token_hash UNIQUE;
DEFINE TABLE IF NOT EXISTS refresh_token SCHEMALESS;
DEFINE INDEX IF NOT EXISTS refresh_token_token ON refresh_token FIELDS token UNIQUE;
DEFINE TABLE IF NOT EXISTS revoked_session SCHEMALESS;
DEFINE INDEX IF NOT EXISTS revoked_session_sid ON revoked_session FIELDS sid UNIQUE;
`

const accountFields = "uid, email, first_name, last_name, avatar_url, confirmed_at"

const (
	qAccountByEmail = "SELECT " + accountFields + " FROM account WHERE email = $email"
	qAccountByUID   = "SELECT " + accountFields + " FROM account WHERE uid = $uid"
	qCheckPassword  = "SELECT " + accountFields + " FROM account WHERE email = $email AND crypto::argon2::compare(password, $password)"

	qCreateAccount = `CREATE account CONTENT {
		uid: $uid,
		email: $email,
		password: crypto::argon2::generate($password),
		first_name: $first_name,
		last_name: $last_name,
		avatar_url: '',
		confirmed_at: $confirmed_at
	}`
	qSetPassword = "UPDATE account SET password = crypto::argon2::generate($password) WHERE uid = $uid"
	qSetMetadata = "UPDATE account SET first_name = $first_name, last_name = $last_name, avatar_url = $avatar_url WHERE uid = $uid"
	qConfirm     = "UPDATE account SET confirmed_at = $confirmed_at WHERE uid = $uid AND confirmed_at = ''"

	qCreateLink = "CREATE auth_link CONTENT { token_hash: $token_hash, email: $email, type: $type, expires: $expires }"
	qTakeLink   = "DELETE auth_link WHERE token_hash = $token_hash AND type = $type RETURN BEFORE"

	qCreateRefresh = "CREATE refresh_token CONTENT { token: $token, uid: $uid, sid: $sid }"
	qTakeRefresh   = "DELETE refresh_token WHERE token = $token RETURN BEFORE"
	qRevoke        = "DELETE refresh_token WHERE sid = $sid; CREATE revoked_session CONTENT { sid: $sid };"
	qIsRevoked     = "SELECT sid FROM revoked_session WHERE sid = $sid"
	qUnrevoke      = "DELETE revoked_session WHERE sid = $sid"
)
