package api

const indexPage = `<html>
    <head><title>Trading Bot</title></head>
    <body>
        <h1>Welcome to the Quotex trading bot</h1>
        <p>Use the links below to switch the bot on or off:</p>
        <a href="/activar">Activate bot</a> | <a href="/desactivar">Deactivate bot</a>
        <p><a href="/estado">Current state</a></p>
    </body>
</html>
`

const (
	activatedFragment   = `<h2>Bot activated</h2><a href='/'>Back</a>`
	deactivatedFragment = `<h2>Bot deactivated</h2><a href='/'>Back</a>`
)
