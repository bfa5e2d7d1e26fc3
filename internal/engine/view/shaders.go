package view

// Shader sources for the two ways a tile chunk is rendered: flat-shaded
// wireframe (used for LOD debugging) and textured (the normal path,
// color + normal map blended against a detail texture).
//
// Both vertex shaders perform the same Y-morph: vertex.y is offset by
// vertex.morphDelta scaled by currentT (uScalar.w = vScale * currentT),
// so at currentT == 1 a chunk lies on its parent tile's surface and at
// 0 on its own, and LOD changes blend instead of popping.

const wireframeVertexShader = `
#version 410 core
layout (location = 0) in vec4 aPosMorph;

uniform vec4 uScalar;   // (hScale, vScale, hScale, vScale * currentT)
uniform mat4 uViewMat;
uniform mat4 uProjMat;
uniform vec3 uOrigin;

void main() {
    float y = aPosMorph.y * uScalar.y + aPosMorph.w * uScalar.w;
    vec3 worldPos = uOrigin + vec3(aPosMorph.x * uScalar.x, y, aPosMorph.z * uScalar.z);
    gl_Position = uProjMat * uViewMat * vec4(worldPos, 1.0);
}
`

const wireframeFragmentShader = `
#version 410 core
uniform vec4 uColor;
out vec4 fragColor;

void main() {
    fragColor = uColor;
}
`

const texturedVertexShader = `
#version 410 core
layout (location = 0) in vec4 aPosMorph;

uniform vec4 uScalar;
uniform mat4 uViewMat;
uniform mat4 uProjMat;
uniform vec3 uOrigin;
uniform int uTileWidth;
uniform int uCol;
uniform int uRow;
uniform float uFogDensity;

out vec2 vTexCoord;
out float vFogFactor;

void main() {
    float y = aPosMorph.y * uScalar.y + aPosMorph.w * uScalar.w;
    vec3 worldPos = uOrigin + vec3(aPosMorph.x * uScalar.x, y, aPosMorph.z * uScalar.z);
    gl_Position = uProjMat * uViewMat * vec4(worldPos, 1.0);
    vTexCoord = vec2(
        (aPosMorph.x + float(uCol)) / float(uTileWidth),
        (aPosMorph.z + float(uRow)) / float(uTileWidth)
    );
    // worldPos is already camera-relative (uOrigin was translated by
    // -cam.Position), so its length is the distance to the camera.
    vFogFactor = 1.0 - exp(-uFogDensity * length(worldPos));
}
`

const texturedFragmentShader = `
#version 410 core
in vec2 vTexCoord;
in float vFogFactor;

uniform sampler2D uColorMap;
uniform sampler2D uNormalMap;
uniform sampler2D uDetailMap;
uniform bool uRain;
uniform bool uLighting;
uniform bool uFog;
uniform vec3 uSunDir;
uniform vec3 uSunIntensity;
uniform vec3 uAmbient;
uniform vec3 uFogColor;

out vec4 fragColor;

void main() {
    vec4 base = texture(uColorMap, vTexCoord);
    vec4 detail = texture(uDetailMap, vTexCoord * 16.0);
    vec3 color = base.rgb * mix(vec3(1.0), detail.rgb * 2.0, 0.3);

    if (uLighting) {
        vec3 n = normalize(texture(uNormalMap, vTexCoord).xyz * 2.0 - 1.0);
        float diffuse = max(dot(n, -uSunDir), 0.0);
        color *= uAmbient + uSunIntensity * diffuse;
    }

    if (uRain) {
        color *= 0.7;
    }

    if (uFog) {
        color = mix(color, uFogColor, clamp(vFogFactor, 0.0, 1.0));
    }

    fragColor = vec4(color, 1.0);
}
`
