package rules

// Backticks inside patterns are written as \x60 so the expressions can stay
// in raw string literals.

func buildCatalog() []Category {
	return []Category{
		// ================================================================
		// SQL INJECTION
		// ================================================================
		{
			Key:           KeySQLInjection,
			Name:          "SQL Injection",
			Severity:      Critical,
			SeverityScore: 95,
			Matchers: []Matcher{
				NewRegexMatcher(`(\bSELECT\b|\bINSERT\b|\bUPDATE\b|\bDELETE\b|\bDROP\b).*(\+\s*req\.(query|body|params)|\x60\$\{|'\s*\+\s*|"\s*\+\s*)`,
					"SQL query concatenation with user input"),
				NewRegexMatcher(`execute\s*\(\s*["'\x60].*(\$\{|\+\s*req\.|%s)`,
					"Dynamic SQL execution with user input"),
				NewRegexMatcher(`query\s*\(\s*["'\x60].*(\$\{|\+\s*(req\.|user|input|data))`,
					"Database query with string concatenation"),
				NewRegexMatcher(`cursor\.execute\s*\(\s*["'\x60].*%.*%\s*\(`,
					"Python SQL injection via string formatting"),
				NewRegexMatcher(`\.query\s*\(\s*\x60[^\x60]*\$\{`,
					"Template literal SQL injection"),
				NewRegexMatcher(`f["']SELECT.*\{.*\}`,
					"Python f-string SQL injection"),
			},
			Fix: "Use parameterized queries or prepared statements instead of string concatenation.",
		},

		// ================================================================
		// CROSS-SITE SCRIPTING
		// ================================================================
		{
			Key:           KeyXSS,
			Name:          "Cross-Site Scripting (XSS)",
			Severity:      High,
			SeverityScore: 80,
			Matchers: []Matcher{
				// An empty string literal directly after "=" is not a sink.
				NewRegexMatcher(`\.innerHTML\s*=`, "Direct innerHTML assignment").
					WithReject(`["'\x60]\s*["'\x60]`),
				NewRegexMatcher(`\.outerHTML\s*=\s*`, "Direct outerHTML assignment"),
				NewRegexMatcher(`document\.write\s*\(`, "document.write usage"),
				NewRegexMatcher(`\.insertAdjacentHTML\s*\(`, "insertAdjacentHTML usage"),
				NewRegexMatcher(`dangerouslySetInnerHTML`, "React dangerouslySetInnerHTML usage"),
				NewRegexMatcher(`\{\{\s*.*\s*\|\s*safe\s*\}\}`, "Template safe filter bypassing escaping"),
				NewRegexMatcher(`v-html\s*=`, "Vue v-html directive"),
				NewRegexMatcher(`\[innerHTML\]\s*=`, "Angular innerHTML binding"),
			},
			Fix: "Use textContent instead of innerHTML, or sanitize HTML input using DOMPurify or similar libraries.",
		},

		// ================================================================
		// HARDCODED CREDENTIALS
		// ================================================================
		{
			Key:           KeyHardcodedCredentials,
			Name:          "Hardcoded Credentials",
			Severity:      High,
			SeverityScore: 85,
			Matchers: []Matcher{
				NewRegexMatcher(`(password|passwd|pwd|secret|api_?key|apikey|auth_?token|access_?token|private_?key)\s*[:=]\s*["'\x60][^"'\x60]{3,}["'\x60]`,
					"Hardcoded password or secret"),
				NewRegexMatcher(`(Bearer|Basic)\s+[A-Za-z0-9+/=]{20,}`,
					"Hardcoded authentication token"),
				NewRegexMatcher(`-----BEGIN\s+(RSA\s+)?PRIVATE\s+KEY-----`,
					"Hardcoded private key"),
				NewRegexMatcher(`aws_?(access_?key_?id|secret_?access_?key)\s*[:=]\s*["'\x60][A-Z0-9]{16,}["'\x60]`,
					"Hardcoded AWS credentials"),
				NewRegexMatcher(`["'\x60](sk-[A-Za-z0-9]{32,})["'\x60]`,
					"Hardcoded OpenAI API key"),
				NewRegexMatcher(`["'\x60](ghp_[A-Za-z0-9]{36,})["'\x60]`,
					"Hardcoded GitHub personal access token"),
				NewRegexMatcher(`mongodb(\+srv)?://[^:]+:[^@]+@`,
					"Hardcoded MongoDB connection string with credentials"),
				NewRegexMatcher(`postgres://[^:]+:[^@]+@`,
					"Hardcoded PostgreSQL connection string with credentials"),
			},
			Fix: "Store credentials in environment variables or use a secrets management service.",
		},

		// ================================================================
		// COMMAND INJECTION
		// ================================================================
		{
			Key:           KeyCommandInjection,
			Name:          "Command Injection",
			Severity:      Critical,
			SeverityScore: 95,
			Matchers: []Matcher{
				NewRegexMatcher(`child_process\.(exec|execSync|spawn|spawnSync)\s*\([^)]*(\+|\x60\$\{|req\.|user|input)`,
					"Node.js command injection via child_process"),
				NewRegexMatcher(`os\.system\s*\([^)]*(\+|f["']|%|\.format\()`,
					"Python os.system command injection"),
				NewRegexMatcher(`subprocess\.(call|run|Popen)\s*\([^)]*shell\s*=\s*True`,
					"Python subprocess with shell=True"),
				NewRegexMatcher(`Runtime\.getRuntime\(\)\.exec\s*\(`,
					"Java Runtime.exec command execution"),
				NewRegexMatcher(`ProcessBuilder\s*\([^)]*\+`,
					"Java ProcessBuilder with string concatenation"),
				NewRegexMatcher(`shell_exec\s*\(\s*\$`,
					"PHP shell_exec with variable"),
				NewRegexMatcher(`\x60[^\x60]*\$[^\x60]*\x60`,
					"Shell command with variable interpolation"),
				NewRegexMatcher(`system\s*\(\s*\$`,
					"PHP system() with variable"),
				NewRegexMatcher(`passthru\s*\(\s*\$`,
					"PHP passthru() with variable"),
			},
			Fix: "Avoid using shell commands with user input. If necessary, use allowlists and proper input validation.",
		},

		// ================================================================
		// UNSAFE FUNCTIONS
		// ================================================================
		{
			Key:           KeyUnsafeFunctions,
			Name:          "Unsafe Function Usage",
			Severity:      High,
			SeverityScore: 75,
			Matchers: []Matcher{
				NewRegexMatcher(`\beval\s*\(`, "eval() function usage"),
				NewRegexMatcher(`new\s+Function\s*\(`, "new Function() constructor"),
				NewRegexMatcher(`setTimeout\s*\(\s*["'\x60]`, "setTimeout with string argument"),
				NewRegexMatcher(`setInterval\s*\(\s*["'\x60]`, "setInterval with string argument"),
				NewRegexMatcher(`\bexec\s*\(`, "exec() function usage"),
				NewRegexMatcher(`pickle\.loads?\s*\(`, "Python pickle deserialization"),
				NewRegexMatcher(`yaml\.load\s*\([^)]*Loader\s*=\s*yaml\.Loader`, "Python unsafe YAML loading"),
				NewRegexMatcher(`unserialize\s*\(\s*\$`, "PHP unserialize with user input"),
				NewRegexMatcher(`deserialize|fromJson|JSON\.parse\s*\(\s*(req\.|user|input)`, "Deserialization of user input"),
				NewRegexMatcher(`assert\s*\(\s*\$`, "PHP assert with variable (code execution)"),
			},
			Fix: "Avoid using eval() and similar dynamic code execution functions. Use safer alternatives.",
		},

		// ================================================================
		// PATH TRAVERSAL
		// ================================================================
		{
			Key:           KeyPathTraversal,
			Name:          "Path Traversal",
			Severity:      High,
			SeverityScore: 80,
			Matchers: []Matcher{
				NewRegexMatcher(`\.\.(/|\\)`, "Directory traversal sequence"),
				NewRegexMatcher(`(readFile|readFileSync|createReadStream)\s*\([^)]*(\+|\x60\$\{|req\.)`, "File read with user input"),
				NewRegexMatcher(`(writeFile|writeFileSync|createWriteStream)\s*\([^)]*(\+|\x60\$\{|req\.)`, "File write with user input"),
				NewRegexMatcher(`open\s*\([^)]*(\+|f["']|%|\.format\()`, "Python file open with user input"),
				NewRegexMatcher(`include\s*\(\s*\$`, "PHP include with variable"),
				NewRegexMatcher(`require\s*\(\s*\$`, "PHP require with variable"),
			},
			Fix: "Validate and sanitize file paths. Use path.resolve() and check against allowed directories.",
		},

		// ================================================================
		// INSECURE CRYPTOGRAPHY
		// ================================================================
		{
			Key:           KeyInsecureCrypto,
			Name:          "Insecure Cryptography",
			Severity:      Medium,
			SeverityScore: 60,
			Matchers: []Matcher{
				NewRegexMatcher(`createHash\s*\(\s*["'\x60](md5|sha1)["'\x60]\s*\)`, "Weak hash algorithm (MD5/SHA1)"),
				NewRegexMatcher(`hashlib\.(md5|sha1)\s*\(`, "Python weak hash algorithm"),
				NewRegexMatcher(`MessageDigest\.getInstance\s*\(\s*["'\x60](MD5|SHA-?1)["'\x60]\s*\)`, "Java weak hash algorithm"),
				NewRegexMatcher(`DES|RC4|Blowfish`, "Weak encryption algorithm"),
				NewRegexMatcher(`Math\.random\s*\(\s*\)`, "Math.random() for security purposes"),
				NewRegexMatcher(`random\.random\s*\(\s*\)`, "Python random.random() for security"),
			},
			Fix: "Use strong cryptographic algorithms like SHA-256, AES-256, and cryptographically secure random number generators.",
		},

		// ================================================================
		// INSECURE CONFIGURATION
		// ================================================================
		{
			Key:           KeyInsecureConfig,
			Name:          "Insecure Configuration",
			Severity:      Medium,
			SeverityScore: 55,
			Matchers: []Matcher{
				NewRegexMatcher(`disable.*ssl|ssl.*false|verify.*false|rejectUnauthorized.*false`, "SSL/TLS verification disabled"),
				NewRegexMatcher(`DEBUG\s*=\s*True`, "Debug mode enabled in production"),
				NewRegexMatcher(`CORS.*\*|Access-Control-Allow-Origin.*\*`, "Permissive CORS configuration"),
				NewRegexMatcher(`httpOnly\s*:\s*false`, "Cookie without httpOnly flag"),
				NewRegexMatcher(`secure\s*:\s*false`, "Cookie without secure flag"),
			},
			Fix: "Enable SSL verification, disable debug mode in production, and configure secure cookie flags.",
		},

		// ================================================================
		// INFORMATION DISCLOSURE
		// ================================================================
		{
			Key:           KeyInformationDisclosure,
			Name:          "Information Disclosure",
			Severity:      Low,
			SeverityScore: 40,
			Matchers: []Matcher{
				NewRegexMatcher(`console\.(log|debug|info)\s*\([^)]*password|secret|key|token`, "Logging sensitive information"),
				NewRegexMatcher(`print\s*\([^)]*password|secret|key|token`, "Printing sensitive information"),
				NewRegexMatcher(`//\s*TODO.*password|secret|key`, "Sensitive information in comments"),
				NewRegexMatcher(`stackTrace|printStackTrace`, "Stack trace exposure"),
			},
			Fix: "Remove sensitive information from logs and error messages. Use proper logging levels.",
		},
	}
}
