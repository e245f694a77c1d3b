package web

const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Black area calculator</title>
<style>
body { font-family: sans-serif; max-width: 720px; margin: 2rem auto; }
#preview { max-width: 100%; border: 1px solid #ccc; margin-top: 1rem; }
.error { color: #b00020; }
</style>
</head>
<body>
<h1>Black area calculator</h1>
<form id="form">
  <input type="file" name="file" accept=".ai,.eps" required>
  <button type="submit">Calculate</button>
</form>
<p id="result"></p>
<img id="preview" hidden alt="rasterized preview">
<script>
document.getElementById('form').addEventListener('submit', async (ev) => {
  ev.preventDefault();
  const result = document.getElementById('result');
  const preview = document.getElementById('preview');
  result.className = '';
  result.textContent = 'Processing...';
  preview.hidden = true;
  const resp = await fetch('/calculate_area', { method: 'POST', body: new FormData(ev.target) });
  const body = await resp.json();
  if (!resp.ok) {
    result.className = 'error';
    result.textContent = body.error;
    return;
  }
  result.textContent = 'Black area: ' + body.area.toFixed(4) + ' cm²';
  preview.src = 'data:image/jpeg;base64,' + body.image_base64;
  preview.hidden = false;
});
</script>
</body>
</html>
`
