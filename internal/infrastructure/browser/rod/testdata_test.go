package rod

// HTML fixtures served to the headless browser.
const (
	BasicHTML = `<!DOCTYPE html>
<html>
<head><title>Test Page</title></head>
<body>
	<h1>Hello World</h1>
</body>
</html>`

	InteractiveHTML = `<!DOCTYPE html>
<html>
<body>
	<button id="btn">Click Me</button>
	<div id="result"></div>
	<script>
		document.getElementById('btn').addEventListener('click', function() {
			document.getElementById('result').textContent = 'Clicked!';
		});
	</script>
</body>
</html>`

	// FilterTableHTML mimics the dashboard's checkbox tables: row 1 is active
	// through its box class, row 2 through its parent, row 3 is inactive.
	FilterTableHTML = `<!DOCTYPE html>
<html>
<body>
<table id="fuel"><tbody>
	<tr><td><div class="ui-chkbox"><div class="ui-helper-hidden"></div><span class="ui-chkbox-box ui-state-active"></span></div><label>CNG ONLY</label></td></tr>
	<tr><td><div class="ui-chkbox ui-state-active"><div></div><span class="ui-chkbox-box"></span></div><label>DIESEL</label></td></tr>
	<tr><td><div class="ui-chkbox"><div></div><span class="ui-chkbox-box ui-state-default" aria-checked="false"></span></div><label>PETROL</label></td></tr>
</tbody></table>
</body>
</html>`
)
